package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/zep-bridge/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig         `toml:"server"`
	Backend BackendConfig        `toml:"backend"`
	Logging common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains the inbound MCP listener settings.
type ServerConfig struct {
	Name      string `toml:"name"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	PublicURL string `toml:"public_url"` // advertised in the SSE endpoint event; empty means relative
}

// BackendConfig describes the session-oriented RPC backend the tools are relayed to.
type BackendConfig struct {
	URL             string `toml:"url"`
	SessionPath     string `toml:"session_path"`
	MessagePath     string `toml:"message_path"`
	SessionTimeout  string `toml:"session_timeout"`
	RPCTimeout      string `toml:"rpc_timeout"`
	MaxSessionBytes int64  `toml:"max_session_bytes"`
}

// GetSessionTimeout parses the session acquisition timeout.
func (c *BackendConfig) GetSessionTimeout() time.Duration {
	return parseDuration(c.SessionTimeout, 30*time.Second)
}

// GetRPCTimeout parses the tools/call timeout.
func (c *BackendConfig) GetRPCTimeout() time.Duration {
	return parseDuration(c.RPCTimeout, 120*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every problem that would stop the bridge from serving.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}

	if strings.TrimSpace(c.Backend.URL) == "" {
		issues = append(issues, "backend.url is required (set ZEP_BRIDGE_BACKEND_URL or [backend] url)")
	} else if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("backend.url must be an absolute http(s) URL (got %q)", c.Backend.URL))
	}

	if !strings.HasPrefix(c.Backend.SessionPath, "/") {
		issues = append(issues, fmt.Sprintf("backend.session_path must start with / (got %q)", c.Backend.SessionPath))
	}
	if !strings.HasPrefix(c.Backend.MessagePath, "/") {
		issues = append(issues, fmt.Sprintf("backend.message_path must start with / (got %q)", c.Backend.MessagePath))
	}

	for name, value := range map[string]string{
		"backend.session_timeout": c.Backend.SessionTimeout,
		"backend.rpc_timeout":     c.Backend.RPCTimeout,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			issues = append(issues, fmt.Sprintf("%s must be a positive duration (got %q)", name, value))
		}
	}

	if c.Backend.MaxSessionBytes < 0 {
		issues = append(issues, fmt.Sprintf("backend.max_session_bytes must not be negative (got %d)", c.Backend.MaxSessionBytes))
	}

	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies ZEP_BRIDGE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("ZEP_BRIDGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ZEP_BRIDGE_HOST"); host != "" {
		config.Server.Host = host
	}
	if publicURL := os.Getenv("ZEP_BRIDGE_PUBLIC_URL"); publicURL != "" {
		config.Server.PublicURL = publicURL
	}
	if backend := os.Getenv("ZEP_BRIDGE_BACKEND_URL"); backend != "" {
		config.Backend.URL = backend
	}
	if timeout := os.Getenv("ZEP_BRIDGE_SESSION_TIMEOUT"); timeout != "" {
		config.Backend.SessionTimeout = timeout
	}
	if timeout := os.Getenv("ZEP_BRIDGE_RPC_TIMEOUT"); timeout != "" {
		config.Backend.RPCTimeout = timeout
	}
	if level := os.Getenv("ZEP_BRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if outputs := os.Getenv("ZEP_BRIDGE_LOG_OUTPUTS"); outputs != "" {
		config.Logging.Outputs = strings.Split(outputs, ",")
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host, backendURL string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if backendURL != "" {
		config.Backend.URL = backendURL
	}
}
