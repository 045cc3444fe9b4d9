// Package config provides 12-factor configuration for the AstraTerm server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Shell: Executor timeout, shell binary, home directory, output cap
//   - Session: Idle TTL and session cap (both off by default)
//   - Archive: SQLite history archive (disabled unless a path is set)
//   - Keys: Location of the provider key file
//   - Tools: Install and run budgets for security tool wrappers
//
// Provider API keys are not environment configuration. They live in a key
// file (JSON, YAML or TOML) read once at startup by LoadKeys.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	keys, err := config.LoadKeys(cfg.Keys.File)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SHELL_TIMEOUT, SHELL_BIN, SHELL_HOME, SHELL_MAX_OUTPUT, SHELL_EXTRA_DENY
//   - SESSION_TTL, SESSION_MAX, SESSION_SWEEP_INTERVAL
//   - ARCHIVE_PATH
//   - ASTRATERM_KEYS_FILE
//   - TOOLS_INSTALL_TIMEOUT, TOOLS_RUN_TIMEOUT
package config
