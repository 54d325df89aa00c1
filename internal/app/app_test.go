package app

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/zep-bridge/internal/common"
	"github.com/bobmcallan/zep-bridge/internal/config"
)

func TestNew_WiresComponents(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Backend.URL = "http://memory.internal:8000/"

	a, err := New(cfg, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if a.Relay == nil || a.MCPHandler == nil {
		t.Fatal("expected relay and MCP handler")
	}
	if a.HealthHandler == nil || a.ReadyHandler == nil || a.VersionHandler == nil {
		t.Fatal("expected HTTP handlers")
	}
	if a.Relay.BaseURL() != "http://memory.internal:8000/" {
		t.Errorf("unexpected relay base url %q", a.Relay.BaseURL())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestNew_NilLogger(t *testing.T) {
	if _, err := New(config.NewDefaultConfig(), nil); err != nil {
		t.Fatalf("New failed: %v", err)
	}
}

func TestNew_InvalidBackend(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Backend.URL = "not a url"

	if _, err := New(cfg, common.NewSilentLogger()); err == nil {
		t.Fatal("expected error for invalid backend url")
	}
}

func TestRelayOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Backend.SessionTimeout = "5s"
	cfg.Backend.RPCTimeout = "1m"
	cfg.Backend.MaxSessionBytes = 1024

	opts := RelayOptions(cfg)
	if opts.SessionTimeout != 5*time.Second {
		t.Errorf("expected 5s session timeout, got %s", opts.SessionTimeout)
	}
	if opts.RPCTimeout != time.Minute {
		t.Errorf("expected 1m rpc timeout, got %s", opts.RPCTimeout)
	}
	if opts.SessionPath != "/sse" || opts.MessagePath != "/messages/" {
		t.Errorf("unexpected paths %q %q", opts.SessionPath, opts.MessagePath)
	}
	if opts.MaxSessionBytes != 1024 {
		t.Errorf("expected 1024 max session bytes, got %d", opts.MaxSessionBytes)
	}
}
