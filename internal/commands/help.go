package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/shared/types"
)

type helpCommand struct {
	caps capability.Set
}

func (c *helpCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	names, err := c.caps.GetCommandList(ctx)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	pattern := operand(args)
	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			out.SetText(fmt.Sprintf("help: invalid pattern '%s'", pattern))
			return nil
		}
		var matched []string
		for _, name := range names {
			if ok, _ := doublestar.Match(pattern, name); ok {
				matched = append(matched, name)
			}
		}
		names = matched
		if len(names) == 0 {
			out.SetText(fmt.Sprintf("help: no commands match '%s'", pattern))
			return nil
		}
	}
	if len(names) == 0 {
		out.SetText("No commands available.")
		return nil
	}

	var b strings.Builder
	for i, name := range names {
		desc, found, err := c.caps.GetCommandMeta(ctx, name, types.MetaDescription)
		if err != nil || !found {
			desc = "No description available."
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-15s : %s", name, desc)
	}
	out.SetText(b.String())
	return nil
}

func (c *helpCommand) CompleteArgs(ctx context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	names, err := c.caps.GetCommandList(ctx)
	return command.Completion{Suggestions: names}, err
}

type manCommand struct {
	caps capability.Set
}

func (c *manCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	name := operand(args)
	if name == "" {
		out.SetText("Usage: man <command>\nPlease specify a command name.")
		return nil
	}

	names, err := c.caps.GetCommandList(ctx)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	lower := strings.ToLower(name)
	target := ""
	for _, n := range names {
		if strings.ToLower(n) == lower {
			target = n
			break
		}
	}
	if target == "" {
		var matches []string
		for _, n := range names {
			if strings.HasPrefix(strings.ToLower(n), lower) {
				matches = append(matches, n)
			}
		}
		switch len(matches) {
		case 0:
			out.SetText(fmt.Sprintf("No manual entry for '%s'.", name))
			return nil
		case 1:
			target = matches[0]
		default:
			out.SetText(fmt.Sprintf("man: ambiguous command '%s'; possibilities: %s", name, strings.Join(matches, " ")))
			return nil
		}
	}

	manual, found, err := c.caps.GetCommandMeta(ctx, target, types.MetaManual)
	if err != nil {
		return fmt.Errorf("read manual of %s: %w", target, err)
	}
	if !found {
		out.SetText(fmt.Sprintf("No manual entry for '%s'.", name))
		return nil
	}
	out.SetText(strings.Trim(manual, "\n"))
	return nil
}

func (c *manCommand) CompleteArgs(ctx context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	names, err := c.caps.GetCommandList(ctx)
	return command.Completion{Suggestions: names}, err
}
