// Package tools is the bridge's front door: it declares the memory tools,
// validates and defaults their arguments, and turns every relay outcome
// into a single text content element.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/zep-bridge/internal/common"
	"github.com/bobmcallan/zep-bridge/internal/relay"
)

// Caller forwards a prepared tool call to the backend. *relay.Relay implements it.
type Caller interface {
	Call(ctx context.Context, tool string, arguments any) (any, error)
}

// Register adds every operation of r to s, each wired to caller.
func (r *Registry) Register(s *server.MCPServer, caller Caller, logger *common.Logger) int {
	for _, op := range r.ops {
		s.AddTool(op.Tool(), Handler(op, caller, logger))
	}
	return len(r.ops)
}

// Handler returns the mcp-go handler for op. It never returns a protocol
// error: failures come back as "Error: <message>" text with IsError set.
func Handler(op Operation, caller Caller, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := logger.WithCorrelationId(uuid.New().String())
		ctx = common.WithLogger(ctx, log)

		start := time.Now()
		text, err := invoke(ctx, op, caller, request.GetArguments())
		duration := time.Since(start)

		if err != nil {
			log.Warn().
				Str("tool", op.Name).
				Str("kind", relay.KindOf(err).String()).
				Int64("duration_ms", duration.Milliseconds()).
				Str("error", err.Error()).
				Msg("tool call failed")
			return errorResult(err), nil
		}

		log.Info().
			Str("tool", op.Name).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("tool call complete")
		return mcp.NewToolResultText(text), nil
	}
}

// invoke runs prepare → relay → render and converts a panic anywhere in the
// chain into an ordinary error.
func invoke(ctx context.Context, op Operation, caller Caller, raw map[string]any) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("internal error: %v", p)
		}
	}()

	args, err := op.Prepare(raw)
	if err != nil {
		return "", err
	}

	result, err := caller.Call(ctx, op.Name, args)
	if err != nil {
		return "", err
	}

	return relay.Render(result)
}

// errorResult creates an in-band MCP error result.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent("Error: " + err.Error()),
		},
		IsError: true,
	}
}
