// Package logging builds the zap loggers used across the server.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Services take a *zap.Logger and name themselves with With or Named;
// a nil logger means zap.NewNop(). Per-terminal loggers carry the
// session id.
//
// Example Usage:
//
//	log, err := logging.New(logging.Config{Level: "debug", Development: true})
//	sessionLog := logging.ForSession(log, sessionID)
//	sessionLog.Info("terminal attached", zap.String("remote", addr))
package logging
