package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Shell     ShellConfig
	Session   SessionConfig
	Archive   ArchiveConfig
	Keys      KeysConfig
	Tools     ToolsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ShellConfig holds command executor configuration.
type ShellConfig struct {
	Timeout        time.Duration `envconfig:"SHELL_TIMEOUT" default:"30s"`
	Shell          string        `envconfig:"SHELL_BIN" default:"/bin/sh"`
	Home           string        `envconfig:"SHELL_HOME"`
	MaxOutputBytes int           `envconfig:"SHELL_MAX_OUTPUT" default:"1048576"`
	ExtraDeny      []string      `envconfig:"SHELL_EXTRA_DENY"`
}

// SessionConfig holds session store configuration. Zero disables eviction.
type SessionConfig struct {
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"0s"`
	MaxSessions   int           `envconfig:"SESSION_MAX" default:"0"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// ArchiveConfig holds history archive configuration.
type ArchiveConfig struct {
	Path string `envconfig:"ARCHIVE_PATH"`
}

// Enabled reports whether the archive should be opened.
func (a ArchiveConfig) Enabled() bool {
	return a.Path != ""
}

// KeysConfig locates the provider key file.
type KeysConfig struct {
	File string `envconfig:"ASTRATERM_KEYS_FILE"`
}

// ToolsConfig holds security tool wrapper budgets.
type ToolsConfig struct {
	InstallTimeout time.Duration `envconfig:"TOOLS_INSTALL_TIMEOUT" default:"10m"`
	RunTimeout     time.Duration `envconfig:"TOOLS_RUN_TIMEOUT" default:"5m"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Shell: ShellConfig{
			Timeout:        30 * time.Second,
			Shell:          "/bin/sh",
			MaxOutputBytes: 1 << 20,
		},
		Session: SessionConfig{
			SweepInterval: time.Minute,
		},
		Tools: ToolsConfig{
			InstallTimeout: 10 * time.Minute,
			RunTimeout:     5 * time.Minute,
		},
	}
}
