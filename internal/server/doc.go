// Package server wires the HTTP front end of the terminal.
//
// This package orchestrates:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, metrics, CORS, rate limiting)
//   - REST handlers and the WebSocket terminal endpoint
//   - A connection cap on the listener
//
// Routes:
//   - GET / and /health
//   - GET /sessions, GET and DELETE /sessions/:id
//   - GET /commands
//   - GET /metrics (Prometheus)
//   - GET /terminal (WebSocket)
//
// Server Lifecycle:
//  1. New registers middleware and routes
//  2. Run listens and serves until its context ends
//  3. Shutdown drains HTTP and closes every session
//
// Example Usage:
//
//	srv := server.New(cfg, server.Deps{Sessions: sessions, Registry: registry, Metrics: metrics, Log: log})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal("server failed", zap.Error(err))
//	}
package server
