package config

import "github.com/bobmcallan/zep-bridge/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "ZEP Memory Server",
			Host: "localhost",
			Port: 4250,
		},
		Backend: BackendConfig{
			URL:             "https://mcp-zep.halfcab.dev",
			SessionPath:     "/sse",
			MessagePath:     "/messages/",
			SessionTimeout:  "30s",
			RPCTimeout:      "120s",
			MaxSessionBytes: 64 << 10,
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}
