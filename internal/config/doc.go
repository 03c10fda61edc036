// Package config provides 12-factor configuration for the terminal server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, connection cap, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - WebSocket: Frame limits and keepalive for terminal connections
//   - Bus: Default request timeout
//   - Storage: SQLite path and optional remote storage
//   - Accounts: Token lifetime and bcrypt cost
//   - Shell: Profile path and displayed hostname
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, MAX_CONNECTIONS, ALLOWED_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - WS_READ_LIMIT, WS_FRAMES_PER_SECOND, WS_FRAME_BURST, WS_WRITE_TIMEOUT,
//     WS_PING_INTERVAL, WS_SEND_BUFFER
//   - BUS_TIMEOUT
//   - SQLITE_PATH, REMOTE_STORAGE_URL, REMOTE_STORAGE_TIMEOUT,
//     REMOTE_STORAGE_RETRIES, REMOTE_STORAGE_RPS
//   - TOKEN_TTL, BCRYPT_COST
//   - PROFILE_PATH, TERMINAL_HOSTNAME
package config
