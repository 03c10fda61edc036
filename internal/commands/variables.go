package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/shared/utils"
)

var categoryTitles = map[string]string{
	types.CategoryTemp:      "Session (In-Memory)",
	types.CategoryLocal:     "Local (Browser Storage)",
	types.CategorySystem:    "Remote (User Account)",
	types.CategoryUserspace: "User (Configurable)",
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// quoteValue quotes values holding whitespace or a JSON object.
func quoteValue(v string) string {
	if strings.ContainsAny(v, " \t\n") || (strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}")) {
		return `"` + v + `"`
	}
	return v
}

type envCommand struct {
	caps capability.Set
}

func (c *envCommand) Execute(ctx context.Context, _ []string, out types.Sink) error {
	vars, err := c.caps.GetAllCategorizedVariables(ctx)
	if err != nil {
		return fmt.Errorf("list variables: %w", err)
	}

	var sections []string
	for _, category := range types.Categories {
		entries := vars[category]
		if len(entries) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# %s Variables", categoryTitles[category])
		for _, key := range sortedKeys(entries) {
			fmt.Fprintf(&b, "\n%s=%s", key, quoteValue(entries[key]))
		}
		sections = append(sections, b.String())
	}
	out.SetText(strings.Join(sections, "\n\n"))
	return nil
}

type exportCommand struct {
	caps capability.Set
}

func (c *exportCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	vars, err := c.caps.GetAllCategorizedVariables(ctx)
	if err != nil {
		return fmt.Errorf("list variables: %w", err)
	}
	userspace := vars[types.CategoryUserspace]

	assignment := strings.Join(words(args), " ")
	if assignment == "" {
		lines := make([]string, 0, len(userspace))
		for _, key := range sortedKeys(userspace) {
			lines = append(lines, fmt.Sprintf(`export %s="%s"`, key, userspace[key]))
		}
		if len(lines) == 0 {
			out.SetText("No user variables defined.")
			return nil
		}
		out.SetText(strings.Join(lines, "\n"))
		return nil
	}

	name, value, ok := parseAssignment(assignment)
	if !ok {
		out.SetText(`export: invalid format. Use name="value"`)
		return nil
	}
	if err := utils.ValidateVariableName(name); err != nil {
		out.SetText("export: " + err.Error())
		return nil
	}
	name = strings.ToUpper(name)
	if _, own := userspace[name]; !own {
		for _, category := range types.Categories {
			if _, taken := vars[category][name]; taken && category != types.CategoryUserspace {
				out.SetText(fmt.Sprintf("export: permission denied: `%s` is a read-only variable.", name))
				return nil
			}
		}
	}
	c.caps.ExportVariable(name, value)
	return nil
}

func (c *exportCommand) CompleteArgs(ctx context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	vars, err := c.caps.GetAllCategorizedVariables(ctx)
	if err != nil {
		return command.Completion{}, err
	}
	names := sortedKeys(vars[types.CategoryUserspace])
	for i := range names {
		names[i] += "="
	}
	return command.Completion{Suggestions: names, Description: "<NAME>=<VALUE>"}, nil
}

type unsetCommand struct {
	caps capability.Set
}

func (c *unsetCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	name := operand(args)
	if name == "" {
		out.SetText("unset: usage: unset <variable_name>")
		return nil
	}
	vars, err := c.caps.GetAllCategorizedVariables(ctx)
	if err != nil {
		return fmt.Errorf("list variables: %w", err)
	}
	upper := strings.ToUpper(name)
	if _, ok := vars[types.CategoryUserspace][upper]; !ok {
		out.SetText(fmt.Sprintf("unset: %s: not found in userspace", name))
		return nil
	}
	c.caps.DeleteUserspaceVariable(upper)
	return nil
}

func (c *unsetCommand) CompleteArgs(ctx context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	vars, err := c.caps.GetAllCategorizedVariables(ctx)
	if err != nil {
		return command.Completion{}, err
	}
	return command.Completion{Suggestions: sortedKeys(vars[types.CategoryUserspace])}, nil
}

type historyCommand struct {
	caps capability.Set
}

func (c *historyCommand) Execute(ctx context.Context, _ []string, out types.Sink) error {
	entries, err := c.caps.GetHistory(ctx)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(entries) == 0 {
		out.SetText("No history available.")
		return nil
	}
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = fmt.Sprintf("%d: %s", len(entries)-i, entry)
	}
	out.SetText(strings.Join(lines, "\n"))
	return nil
}
