// Package common provides the container harness for the bridge's
// integration tests.
package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const bridgePort = "4250/tcp"

// BridgeContainer is a running zep-bridge image.
type BridgeContainer struct {
	container testcontainers.Container
	url       string
}

// URL returns the base URL of the running bridge container.
func (b *BridgeContainer) URL() string {
	return b.url
}

// CollectLogs saves the container's stdout/stderr to dir.
func (b *BridgeContainer) CollectLogs(dir string) {
	if b == nil || b.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reader, err := b.container.Logs(ctx)
	if err != nil {
		return
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return
	}
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "zep-bridge.log"), logs, 0644)
}

// Cleanup terminates the container with a fresh context.
func (b *BridgeContainer) Cleanup() {
	if b == nil || b.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	b.container.Terminate(ctx)
}

// RequireContainers skips the test unless container tests were requested.
func RequireContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if os.Getenv("ZEP_BRIDGE_CONTAINER_TESTS") != "1" {
		t.Skip("set ZEP_BRIDGE_CONTAINER_TESTS=1 to run container tests")
	}
}

// StartBridge builds the bridge image and runs it against a backend that
// listens on backendPort of the test host.
func StartBridge(t *testing.T, backendPort int) *BridgeContainer {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
	defer cancel()

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: testcontainers.FromDockerfile{
				Context:    FindProjectRoot(),
				Dockerfile: "tests/docker/Dockerfile",
				Repo:       "zep-bridge",
				Tag:        "test",
				KeepImage:  true,
			},
			ExposedPorts:    []string{bridgePort},
			HostAccessPorts: []int{backendPort},
			Env: map[string]string{
				"ZEP_BRIDGE_BACKEND_URL":     fmt.Sprintf("http://%s:%d", testcontainers.HostInternal, backendPort),
				"ZEP_BRIDGE_SESSION_TIMEOUT": "5s",
				"ZEP_BRIDGE_RPC_TIMEOUT":     "5s",
				"ZEP_BRIDGE_LOG_LEVEL":       "debug",
			},
			WaitingFor: wait.ForHTTP("/api/health").WithPort(bridgePort).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	}

	ctr, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		if ctr != nil {
			ctr.Terminate(context.Background())
		}
		t.Fatalf("failed to start bridge container: %v", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		ctr.Terminate(context.Background())
		t.Fatalf("failed to get bridge host: %v", err)
	}
	mappedPort, err := ctr.MappedPort(ctx, bridgePort)
	if err != nil {
		ctr.Terminate(context.Background())
		t.Fatalf("failed to get bridge port: %v", err)
	}

	b := &BridgeContainer{
		container: ctr,
		url:       fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
	}
	t.Cleanup(func() {
		if t.Failed() {
			b.CollectLogs(filepath.Join(FindProjectRoot(), "tests", "logs", t.Name()))
		}
		b.Cleanup()
	})
	return b
}

// FindProjectRoot walks up from the working directory to the go.mod.
func FindProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
