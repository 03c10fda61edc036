// Package commands holds the built-in commands.
//
// Each command is a command.Definition: its description and manual page
// come from the embedded manuals.toml, its Capabilities name the services
// it talks to, and New builds one instance per invocation from the bound
// capability.Set.
//
//	registry := command.NewRegistry()
//	defs, err := commands.Builtins(commands.Info{Version: version})
//	registry.MustRegister(defs...)
package commands
