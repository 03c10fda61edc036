package commands

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/shared/utils"
)

type aliasCommand struct {
	caps capability.Set
}

func (c *aliasCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	aliases, err := c.caps.GetAliases(ctx)
	if err != nil {
		return fmt.Errorf("read aliases: %w", err)
	}

	arg := strings.Join(words(args), " ")
	if arg == "" {
		if len(aliases) == 0 {
			out.SetText("No aliases defined.")
			return nil
		}
		lines := make([]string, 0, len(aliases))
		for _, name := range sortedKeys(aliases) {
			lines = append(lines, fmt.Sprintf("alias %s='%s'", name, aliases[name]))
		}
		out.SetText(strings.Join(lines, "\n"))
		return nil
	}

	if !strings.Contains(arg, "=") {
		value, ok := aliases[arg]
		if !ok {
			out.SetText(fmt.Sprintf("alias: %s: not found", arg))
			return nil
		}
		out.SetText(fmt.Sprintf("alias %s='%s'", arg, value))
		return nil
	}

	name, value, ok := parseAssignment(arg)
	if !ok {
		out.SetText(`alias: invalid format. Use name="value"`)
		return nil
	}
	if err := utils.ValidateAliasName(name); err != nil {
		out.SetText("alias: " + err.Error())
		return nil
	}

	updated := maps.Clone(aliases)
	if updated == nil {
		updated = map[string]string{}
	}
	updated[name] = value
	c.caps.SetAliases(updated)
	out.SetText(fmt.Sprintf("Alias '%s' created.", name))
	return nil
}

type unaliasCommand struct {
	caps capability.Set
}

func (c *unaliasCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	name := operand(args)
	if name == "" {
		out.SetText("unalias: usage: unalias <alias_name>")
		return nil
	}
	aliases, err := c.caps.GetAliases(ctx)
	if err != nil {
		return fmt.Errorf("read aliases: %w", err)
	}
	if _, ok := aliases[name]; !ok {
		out.SetText(fmt.Sprintf("unalias: %s: not found", name))
		return nil
	}
	updated := maps.Clone(aliases)
	delete(updated, name)
	c.caps.SetAliases(updated)
	out.SetText(fmt.Sprintf("Alias '%s' removed.", name))
	return nil
}

func (c *unaliasCommand) CompleteArgs(ctx context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	aliases, err := c.caps.GetAliases(ctx)
	if err != nil {
		return command.Completion{}, err
	}
	return command.Completion{Suggestions: sortedKeys(aliases)}, nil
}
