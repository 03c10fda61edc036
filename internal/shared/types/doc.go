// Package types holds the bus protocol: topic names and the payload types
// that travel on them.
//
// Topic groups:
//   - Aliases: get/set the alias table
//   - Commands: execute, finished, list, metadata
//   - Autocomplete: suggestions request, orchestrator request and result
//   - Storage: one request topic routed by storage name
//   - Environment, history, accounting, input and presenters
//
// Requests are answered with the matching *Response type, or with an error
// value when they fail.
package types
