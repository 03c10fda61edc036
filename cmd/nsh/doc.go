// Command nsh runs a Nnoitra terminal session in a local terminal.
//
// It opens the same session the server gives a browser and drives it with
// line editing and Tab completion. With -c it runs one command and exits.
//
// Usage:
//
//	nsh                      # interactive shell
//	nsh -c "help"            # run one command
//	nsh --db ~/.nsh.db       # keep LOCAL storage in a file
//	nsh --instance <uuid>    # reuse the history and variables of an instance
package main
