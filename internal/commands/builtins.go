package commands

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/shared/types"
)

//go:embed motd.txt
var defaultMotd string

// Info is static data some commands print.
type Info struct {
	Version string
	Commit  string
	// Motd is the welcome text. Empty uses the built-in one.
	Motd string
	// Now is the clock used by date. Nil uses time.Now.
	Now func() time.Time
	// Pages overrides the embedded manual pages.
	Pages Pages
}

// run adapts a function to command.Command.
type run func(ctx context.Context, args []string, out types.Sink) error

func (f run) Execute(ctx context.Context, args []string, out types.Sink) error {
	return f(ctx, args, out)
}

func loggedIn(c command.Context) bool  { return c.IsLoggedIn }
func loggedOut(c command.Context) bool { return !c.IsLoggedIn }

// Builtins returns the definitions of every built-in command.
func Builtins(info Info) ([]command.Definition, error) {
	pages := info.Pages
	if pages == nil {
		var err error
		if pages, err = DefaultPages(); err != nil {
			return nil, err
		}
	}
	if info.Motd == "" {
		info.Motd = defaultMotd
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Now == nil {
		info.Now = time.Now
	}

	defs := []command.Definition{
		{Name: "welcome", New: func(capability.Set) command.Command { return welcome(info) }},
		{Name: "version", New: func(capability.Set) command.Command { return version(info) }},
		{Name: "date", New: func(capability.Set) command.Command { return date(info) }},
		{Name: "echo", New: func(capability.Set) command.Command { return run(echo) }},
		{
			Name:         "help",
			Capabilities: []capability.Name{capability.GetCommandList, capability.GetCommandMeta},
			New:          func(c capability.Set) command.Command { return &helpCommand{caps: c} },
		},
		{
			Name:         "man",
			Capabilities: []capability.Name{capability.GetCommandList, capability.GetCommandMeta},
			New:          func(c capability.Set) command.Command { return &manCommand{caps: c} },
		},
		{
			Name:         "clear",
			Capabilities: []capability.Name{capability.ClearScreen},
			New:          func(c capability.Set) command.Command { return clearCommand(c) },
		},
		{
			Name:         "alias",
			Capabilities: []capability.Name{capability.GetAliases, capability.SetAliases},
			New:          func(c capability.Set) command.Command { return &aliasCommand{caps: c} },
		},
		{
			Name:         "unalias",
			Capabilities: []capability.Name{capability.GetAliases, capability.SetAliases},
			New:          func(c capability.Set) command.Command { return &unaliasCommand{caps: c} },
		},
		{
			Name:         "env",
			Capabilities: []capability.Name{capability.GetAllCategorizedVariables},
			New:          func(c capability.Set) command.Command { return &envCommand{caps: c} },
		},
		{
			Name:         "export",
			Capabilities: []capability.Name{capability.GetAllCategorizedVariables, capability.ExportVariable},
			New:          func(c capability.Set) command.Command { return &exportCommand{caps: c} },
		},
		{
			Name:         "unset",
			Capabilities: []capability.Name{capability.GetAllCategorizedVariables, capability.DeleteUserspaceVariable},
			New:          func(c capability.Set) command.Command { return &unsetCommand{caps: c} },
		},
		{
			Name:         "history",
			Capabilities: []capability.Name{capability.GetHistory},
			New:          func(c capability.Set) command.Command { return &historyCommand{caps: c} },
		},
		{
			Name:         "whoami",
			Capabilities: []capability.Name{capability.CurrentUser},
			New:          func(c capability.Set) command.Command { return &whoamiCommand{caps: c} },
		},
		{
			Name:         "login",
			Available:    loggedOut,
			Capabilities: []capability.Name{capability.Prompt, capability.Login},
			New:          func(c capability.Set) command.Command { return &loginCommand{caps: c} },
		},
		{
			Name:         "logout",
			Available:    loggedIn,
			Capabilities: []capability.Name{capability.Logout},
			New:          func(c capability.Set) command.Command { return &logoutCommand{caps: c} },
		},
		{
			Name:         "adduser",
			Available:    loggedOut,
			Capabilities: []capability.Name{capability.Prompt, capability.AddUser},
			New:          func(c capability.Set) command.Command { return &adduserCommand{caps: c} },
		},
		{
			Name:         "passwd",
			Available:    loggedIn,
			Capabilities: []capability.Name{capability.Prompt, capability.ChangePassword},
			New:          func(c capability.Set) command.Command { return &passwdCommand{caps: c} },
		},
	}

	for i := range defs {
		page, ok := pages[defs[i].Name]
		if !ok {
			return nil, fmt.Errorf("no manual page for %q", defs[i].Name)
		}
		defs[i].Description = page.Description
		defs[i].Manual = page.Manual
	}
	return defs, nil
}
