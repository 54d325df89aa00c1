package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/zep-bridge/internal/common"
	"github.com/bobmcallan/zep-bridge/internal/config"
)

type echoCaller struct {
	tool string
}

func (c *echoCaller) Call(_ context.Context, tool string, _ any) (any, error) {
	c.tool = tool
	return map[string]any{"tool": tool}, nil
}

func TestNewHandler_RegistersMemoryTools(t *testing.T) {
	h := NewHandler(config.NewDefaultConfig(), &echoCaller{}, common.NewSilentLogger())

	got := h.Tools()
	want := []string{"add_memory", "search_memory_facts", "search_memory_nodes", "get_episodes"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tool %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	got[0] = "mutated"
	if h.Tools()[0] != "add_memory" {
		t.Error("Tools should return a copy")
	}
}

func TestHandler_InProcessCall(t *testing.T) {
	caller := &echoCaller{}
	h := NewHandler(config.NewDefaultConfig(), caller, common.NewSilentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.NewInProcessClient(h.Server())
	if err != nil {
		t.Fatalf("failed to create in-process client: %v", err)
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("failed to start client: %v", err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "handler-test", Version: "0.0.1"}
	initRes, err := c.Initialize(ctx, initReq)
	if err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}
	if initRes.ServerInfo.Name != "ZEP Memory Server" {
		t.Errorf("expected server name 'ZEP Memory Server', got %q", initRes.ServerInfo.Name)
	}
	if initRes.ServerInfo.Version != config.GetVersion() {
		t.Errorf("expected server version %s, got %q", config.GetVersion(), initRes.ServerInfo.Version)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = "search_memory_nodes"
	req.Params.Arguments = map[string]any{"query": "billing"}

	res, err := c.CallTool(ctx, req)
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	if text.Text != "{\n  \"tool\": \"search_memory_nodes\"\n}" {
		t.Errorf("unexpected result %q", text.Text)
	}
	if caller.tool != "search_memory_nodes" {
		t.Errorf("expected caller to receive search_memory_nodes, got %q", caller.tool)
	}
}

func TestHandler_ShutdownWithoutSessions(t *testing.T) {
	h := NewHandler(config.NewDefaultConfig(), &echoCaller{}, common.NewSilentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := h.Shutdown(ctx); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
