// Package main is the entry point for the Nnoitra Terminal server.
//
// The server hosts browser terminals: every WebSocket connection on
// /terminal gets its own session with a command resolver, environment,
// aliases, history and accounts behind one message bus.
//
// Architecture:
//
//	Browser ⇄ WebSocket ⇄ Session bus → services → SESSION / LOCAL / REMOTE storage
//
// Configuration:
//   - Environment variables (12-factor), see internal/config
//   - Optional YAML shell profile (PROFILE_PATH)
//
// Usage:
//
//	# Production mode
//	PORT=8000 SQLITE_PATH=/var/lib/nnoitra/terminal.db ./server
//
//	# Development mode (colored logs, debug level)
//	LOG_DEV=true LOG_LEVEL=debug ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
