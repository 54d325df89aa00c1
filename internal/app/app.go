package app

import (
	"context"
	"fmt"

	"github.com/bobmcallan/zep-bridge/internal/common"
	"github.com/bobmcallan/zep-bridge/internal/config"
	"github.com/bobmcallan/zep-bridge/internal/handlers"
	"github.com/bobmcallan/zep-bridge/internal/mcp"
	"github.com/bobmcallan/zep-bridge/internal/relay"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger
	Relay  *relay.Relay

	// HTTP handlers
	HealthHandler  *handlers.HealthHandler
	ReadyHandler   *handlers.ReadyHandler
	VersionHandler *handlers.VersionHandler
	MCPHandler     *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	rl, err := relay.New(RelayOptions(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend relay: %w", err)
	}
	a.Relay = rl

	a.initHandlers()

	logger.Info().
		Str("backend", cfg.Backend.URL).
		Str("session_timeout", cfg.Backend.GetSessionTimeout().String()).
		Str("rpc_timeout", cfg.Backend.GetRPCTimeout().String()).
		Msg("application initialization complete")

	return a, nil
}

// RelayOptions maps the backend section of cfg onto relay options.
func RelayOptions(cfg *config.Config) relay.Options {
	return relay.Options{
		BaseURL:         cfg.Backend.URL,
		SessionPath:     cfg.Backend.SessionPath,
		MessagePath:     cfg.Backend.MessagePath,
		SessionTimeout:  cfg.Backend.GetSessionTimeout(),
		RPCTimeout:      cfg.Backend.GetRPCTimeout(),
		MaxSessionBytes: cfg.Backend.MaxSessionBytes,
	}
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.ReadyHandler = handlers.NewReadyHandler(a.Logger, a.Relay)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger, a.Config.Server.Name)
	a.MCPHandler = mcp.NewHandler(a.Config, a.Relay, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close releases the MCP transports.
func (a *App) Close(ctx context.Context) error {
	if a.MCPHandler == nil {
		return nil
	}
	return a.MCPHandler.Shutdown(ctx)
}
