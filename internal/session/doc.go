// Package session assembles terminal sessions.
//
// A session is everything one terminal needs behind a single bus: storage
// services, the variable, alias, history, accounting and input services,
// the command resolver, the autocomplete orchestrator and the terminal
// loop. The front end only talks to the bus.
//
// Components:
//   - Session: one bus and its services, run until closed
//   - Manager: tracks open sessions and shares the LOCAL store between them
//
// Storage Layout:
//   - SESSION: in-memory, private to the session
//   - LOCAL: one shared backend; the instance id partitions it per browser
//   - REMOTE: per session, present only when a remote URL is configured
//
// Lifecycle:
//  1. Open builds the bus, wires the services and announces the user
//  2. Run drives the terminal loop until the context ends or Close is called
//  3. Close shuts the bus and releases the session's private storage
//
// Example Usage:
//
//	manager := session.NewManager(cfg, log)
//	sess, err := manager.Open(ctx, instanceID)
//	go sess.Run(ctx)
//	defer manager.Close(sess.ID())
package session
