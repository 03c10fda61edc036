// Package http provides the REST handlers of the terminal server.
//
// Endpoints:
//   - Health: / and /health
//   - Sessions: /sessions, /sessions/:id
//   - Commands: /commands
//
// Features:
//   - JSON responses with proper HTTP status codes
//   - Session id validation before lookup
//   - Metrics snapshot in the health report
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions, registry, metrics, version)
//	router.GET("/health", handlers.Health)
//	router.DELETE("/sessions/:id", handlers.CloseSession)
package http
