package command

import (
	"context"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// Command is one instance of a command, built for a single invocation.
//
// args are the resolved tokens with their delimiters still attached, the
// command name first: "export A=b" arrives as ["export ", "A=", "b"].
// Output goes to out; a returned error is reported to the user as
// "Error executing <name>: <err>".
type Command interface {
	Execute(ctx context.Context, args []string, out types.Sink) error
}

// ArgCompleter is implemented by commands that complete their arguments.
// args are the tokens after the command name; the last one is the word
// being completed.
type ArgCompleter interface {
	CompleteArgs(ctx context.Context, args []string) (Completion, error)
}

// Completion lists argument candidates. Description is a hint for the
// current position ("<USERNAME>") shown when there is nothing to pick.
type Completion struct {
	Suggestions []string
	Description string
}

// Context is what availability predicates see.
type Context struct {
	IsLoggedIn bool
}

// Definition registers a command.
type Definition struct {
	Name        string
	Description string
	Manual      string

	// Available hides the command when it returns false. Nil means always
	// available.
	Available func(Context) bool

	// Capabilities lists the services the command may use. Only these are
	// bound into the Set passed to New.
	Capabilities []capability.Name

	New func(caps capability.Set) Command
}

// Meta returns the metadata value for key.
func (d Definition) Meta(key string) (string, bool) {
	switch key {
	case types.MetaDescription:
		return d.Description, d.Description != ""
	case types.MetaManual:
		return d.Manual, d.Manual != ""
	}
	return "", false
}

func (d Definition) available(c Context) bool {
	return d.Available == nil || d.Available(c)
}
