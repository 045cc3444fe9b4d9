// Command astraterm runs the AstraTerm terminal server and its local
// front-ends.
//
// Subcommands:
//   - serve: REST + WebSocket server
//   - shell: interactive line-oriented terminal on stdin/stdout
//   - exec: run one command and exit with its status
//   - replay: run the commands of a saved transcript in a fresh session
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//   - Provider keys from a JSON, YAML or TOML key file
//
// Usage:
//
//	# Production mode
//	astraterm serve --port 8000
//
//	# Development mode (colored logs, debug level)
//	astraterm serve --dev
//
//	# One-shot
//	astraterm exec 'ls -la'
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown (serve); cancel the running command (shell)
package main
