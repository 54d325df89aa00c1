package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/zep-bridge/tests/common"
)

// recordingBackend is a session-per-call memory server running on the test host.
type recordingBackend struct {
	*httptest.Server

	mu        sync.Mutex
	envelopes []map[string]any
}

func newRecordingBackend(t *testing.T) *recordingBackend {
	t.Helper()
	b := &recordingBackend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sse":
			w.Header().Set("Content-Type", "text/event-stream")
			io.WriteString(w, "event: endpoint\ndata: /messages/?session_id=abc123\n\n")
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		case "/messages/":
			var env map[string]any
			json.NewDecoder(r.Body).Decode(&env)
			b.mu.Lock()
			b.envelopes = append(b.envelopes, env)
			b.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":{"episodes":[]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *recordingBackend) port(t *testing.T) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(b.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to parse backend address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse backend port: %v", err)
	}
	return port
}

func TestBridgeContainer_GetEpisodes(t *testing.T) {
	common.RequireContainers(t)

	backend := newRecordingBackend(t)
	bridge := common.StartBridge(t, backend.port(t))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c, err := client.NewStreamableHttpClient(bridge.URL() + "/mcp")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("failed to start client: %v", err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "container-test", Version: "0.0.1"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_episodes"
	req.Params.Arguments = map[string]any{"group_id": "g1"}

	res, err := c.CallTool(ctx, req)
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	if text.Text != "{\n  \"episodes\": []\n}" {
		t.Errorf("unexpected result %q", text.Text)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.envelopes) != 1 {
		t.Fatalf("expected one envelope, got %d", len(backend.envelopes))
	}
	params, _ := json.Marshal(backend.envelopes[0]["params"])
	want := `{"arguments":{"group_id":"g1","last_n":10},"name":"get_episodes"}`
	if string(params) != want {
		t.Errorf("expected params %s, got %s", want, params)
	}
}

func TestBridgeContainer_Ready(t *testing.T) {
	common.RequireContainers(t)

	backend := newRecordingBackend(t)
	bridge := common.StartBridge(t, backend.port(t))

	resp, err := http.Get(bridge.URL() + "/api/ready")
	if err != nil {
		t.Fatalf("ready request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
}
