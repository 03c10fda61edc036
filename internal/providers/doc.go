// Package providers groups the session services that answer bus requests.
//
// Each provider owns one concern of a terminal session and registers its
// handlers on the session bus. Nothing calls a provider directly; commands
// and front ends publish requests and the provider responds.
//
// Available Providers:
//   - Environment: Variables across TEMP, LOCAL, SYSTEM and USERSPACE
//   - Alias: Alias table with storage persistence
//   - History: Per-user command history and navigation
//   - Accounting: Users, passwords, login and token refresh
//   - Input: Pending input requests and submissions
//   - Terminal: The read, resolve, execute loop
//
// Provider Interface:
//   - NewProvider(bus, ...): Creates the provider
//   - Listen(): Registers its handlers on the bus
//
// Example Usage:
//
//	env := environment.NewProvider(b, environment.Config{}, log)
//	env.Listen()
package providers
