package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/shared/types"
)

func welcome(info Info) run {
	return func(_ context.Context, _ []string, out types.Sink) error {
		out.SetText(strings.TrimRight(info.Motd, "\n"))
		return nil
	}
}

func version(info Info) run {
	return func(_ context.Context, _ []string, out types.Sink) error {
		text := "Nnoitra Terminal " + info.Version
		if info.Commit != "" {
			text += " (" + info.Commit + ")"
		}
		out.SetText(text)
		return nil
	}
}

// dateLayout mimics the browser's Date.toString.
const dateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

func date(info Info) run {
	return func(_ context.Context, _ []string, out types.Sink) error {
		out.SetText(info.Now().Format(dateLayout))
		return nil
	}
}

func echo(_ context.Context, args []string, out types.Sink) error {
	out.SetText(strings.Join(words(args), " "))
	return nil
}

func clearCommand(caps capability.Set) run {
	return func(context.Context, []string, types.Sink) error {
		caps.ClearScreen()
		return nil
	}
}

type whoamiCommand struct {
	caps capability.Set
}

func (c *whoamiCommand) Execute(ctx context.Context, _ []string, out types.Sink) error {
	status, err := c.caps.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("read current user: %w", err)
	}
	user := status.User
	if user == "" {
		user = "guest"
	}
	out.SetText(user)
	return nil
}
