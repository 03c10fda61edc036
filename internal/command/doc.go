// Package command provides the command registry and resolver.
//
// The registry is the catalogue of commands a terminal knows. The resolver
// turns a command line into an invocation: tokenize, expand an alias on
// the first word (one level only), look the name up, bind the declared
// capabilities, run it.
//
// Components:
//   - Registry: thread-safe catalogue keyed by name
//   - Definition: name, description, manual, availability, capabilities, constructor
//   - Resolver: alias expansion, execution, completion, metadata over the bus
//
// Features:
//   - Availability predicates hide commands by login state
//   - Least-privilege capability sets per invocation
//   - Errors and panics in commands become "Error executing <name>: ..."
//   - One finished broadcast per executed line, whatever happens
//
// Example Usage:
//
//	registry := command.NewRegistry()
//	registry.MustRegister(commands.Builtins(manuals)...)
//	resolver := command.NewResolver(registry, b, caps, log, time.Second)
//	resolver.Listen()
//	b.Publish(types.TopicCommandExecute, types.CommandExecute{CommandString: "help", Output: block})
package command
