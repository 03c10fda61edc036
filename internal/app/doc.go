// Package app assembles the process-wide parts of the terminal.
//
// Both the HTTP server and the local shell start here: the shell profile,
// the built-in command registry, LOCAL storage, metrics and the session
// manager. Front ends only open sessions.
//
// Key Components:
//   - App: shared components and their shutdown order
//   - BuildInfo: version and commit printed by the version command
//
// Example Usage:
//
//	a, err := app.New(ctx, cfg, app.BuildInfo{Version: version}, log)
//	if err != nil {
//	    log.Fatal("startup failed", zap.Error(err))
//	}
//	defer a.Close(context.Background())
//	sess, err := a.Sessions.Open(ctx, "")
package app
