package server

import (
	"net/http"

	"github.com/bobmcallan/zep-bridge/internal/mcp"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP transports
	mux.Handle(mcp.StreamablePath, s.app.MCPHandler.Streamable())
	mux.Handle(mcp.SSEPath, s.app.MCPHandler.SSE())
	mux.Handle(mcp.SSEMessagePath, s.app.MCPHandler.SSE())

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/ready", s.app.ReadyHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	mux.HandleFunc("/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
