// Package mcp exposes the memory tools over the MCP transports: streamable
// HTTP on /mcp, the legacy SSE transport on /sse, and stdio.
package mcp

import (
	"context"
	"errors"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/zep-bridge/internal/common"
	"github.com/bobmcallan/zep-bridge/internal/config"
	"github.com/bobmcallan/zep-bridge/internal/tools"
)

const (
	// SSEPath is where clients of the SSE transport open their stream.
	SSEPath = "/sse"
	// SSEMessagePath receives the JSON-RPC messages of an SSE session.
	SSEMessagePath = "/sse/message"
	// StreamablePath serves the streamable HTTP transport.
	StreamablePath = "/mcp"
)

// Handler owns the MCP server and its HTTP transports.
type Handler struct {
	server     *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	sse        *mcpserver.SSEServer
	logger     *common.Logger
	tools      []string
}

// NewHandler creates the MCP server, registers every memory tool against
// caller and builds both HTTP transports.
func NewHandler(cfg *config.Config, caller tools.Caller, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		cfg.Server.Name,
		config.GetVersion(),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	registry := tools.DefaultRegistry()
	toolCount := registry.Register(mcpSrv, caller, logger)

	names := make([]string, 0, toolCount)
	for _, op := range registry.Operations() {
		names = append(names, op.Name)
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
		mcpserver.WithEndpointPath(StreamablePath),
	)

	sseOpts := []mcpserver.SSEOption{
		mcpserver.WithSSEEndpoint(SSEPath),
		mcpserver.WithMessageEndpoint(SSEMessagePath),
	}
	if cfg.Server.PublicURL != "" {
		sseOpts = append(sseOpts, mcpserver.WithBaseURL(cfg.Server.PublicURL))
	} else {
		sseOpts = append(sseOpts, mcpserver.WithUseFullURLForMessageEndpoint(false))
	}
	sse := mcpserver.NewSSEServer(mcpSrv, sseOpts...)

	logger.Info().
		Int("tools", toolCount).
		Str("backend", cfg.Backend.URL).
		Msg("MCP handler initialized")

	return &Handler{
		server:     mcpSrv,
		streamable: streamable,
		sse:        sse,
		logger:     logger,
		tools:      names,
	}
}

// Tools returns the registered tool names in registration order.
func (h *Handler) Tools() []string {
	out := make([]string, len(h.tools))
	copy(out, h.tools)
	return out
}

// Server returns the underlying MCP server, used by the stdio transport.
func (h *Handler) Server() *mcpserver.MCPServer {
	return h.server
}

// Streamable serves the streamable HTTP transport.
func (h *Handler) Streamable() http.Handler {
	return h.streamable
}

// SSE serves both the SSE stream and its message endpoint.
func (h *Handler) SSE() http.Handler {
	return h.sse
}

// Shutdown closes open SSE sessions and the streamable transport.
func (h *Handler) Shutdown(ctx context.Context) error {
	return errors.Join(
		h.sse.Shutdown(ctx),
		h.streamable.Shutdown(ctx),
	)
}

// ServeStdio runs the MCP server over stdin/stdout until the input closes.
func (h *Handler) ServeStdio() error {
	h.logger.Info().Int("tools", len(h.tools)).Msg("serving MCP over stdio")
	return mcpserver.ServeStdio(h.server)
}
