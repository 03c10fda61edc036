// Package terminal runs the read-execute loop of one terminal.
//
// Each turn renders the prompt from PS1, waits for a line on
// input-request (no timeout), publishes command-execute-broadcast with a
// fresh Block as the output sink, and waits for
// command-execution-finished-broadcast. The finished block goes out on
// output-broadcast and the line is handed to history.
//
// Prompt placeholders:
//
//	{user} {host} {path} {year} {month} {day} {hour} {minute} {second}
//
// Unknown placeholders are left as written.
package terminal
