package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/providers/accounting"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/shared/utils"
)

func secret(prompt string) types.InputRequest {
	return types.InputRequest{Prompt: prompt, Secret: true}
}

var usernameHint = command.Completion{Description: "<USERNAME>"}

type loginCommand struct {
	caps capability.Set
}

func (c *loginCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	username := operand(args)
	if username == "" {
		out.SetText("Usage: login <username>")
		return nil
	}
	password, err := c.caps.Prompt(ctx, secret("Password: "))
	if err != nil {
		out.SetText("login: Operation cancelled.")
		return nil
	}
	if err := c.caps.Login(ctx, username, password); err != nil {
		out.SetText("login: " + err.Error())
		return nil
	}
	out.SetText(fmt.Sprintf("Logged in as '%s'.", username))
	return nil
}

func (c *loginCommand) CompleteArgs(_ context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	return usernameHint, nil
}

type logoutCommand struct {
	caps capability.Set
}

func (c *logoutCommand) Execute(ctx context.Context, _ []string, out types.Sink) error {
	err := c.caps.Logout(ctx)
	switch {
	case errors.Is(err, accounting.ErrNotLoggedIn):
		out.SetText("Already logged out.")
	case err != nil:
		out.SetText("logout: " + err.Error())
	default:
		out.SetText("Logged out.")
	}
	return nil
}

type adduserCommand struct {
	caps capability.Set
}

func (c *adduserCommand) Execute(ctx context.Context, args []string, out types.Sink) error {
	username := operand(args)
	if username == "" {
		out.SetText("adduser: missing username operand.")
		return nil
	}
	if err := utils.ValidateUsername(username); err != nil {
		out.SetText("adduser: " + err.Error() + ".")
		return nil
	}

	password, err := c.caps.Prompt(ctx, secret("Password: "))
	if err != nil {
		out.SetText("adduser: Operation cancelled.")
		return nil
	}
	out.AppendText("Password received.\n")

	confirm, err := c.caps.Prompt(ctx, secret("Confirm password: "))
	if err != nil {
		out.AppendText("adduser: Operation cancelled.")
		return nil
	}
	out.AppendText("Confirmation received.\n")

	if password != confirm {
		out.AppendText("adduser: Passwords do not match. User not created.")
		return nil
	}
	if err := utils.ValidatePassword(password); err != nil {
		out.AppendText("adduser: " + err.Error())
		return nil
	}

	out.AppendText("Creating user...\n")
	if err := c.caps.AddUser(ctx, username, password); err != nil {
		out.AppendText("adduser: " + err.Error())
		return nil
	}
	out.AppendText(fmt.Sprintf("User '%s' created successfully.", username))
	return nil
}

func (c *adduserCommand) CompleteArgs(_ context.Context, args []string) (command.Completion, error) {
	if !firstArg(args) {
		return command.Completion{}, nil
	}
	return usernameHint, nil
}

type passwdCommand struct {
	caps capability.Set
}

func (c *passwdCommand) Execute(ctx context.Context, _ []string, out types.Sink) error {
	prompts := []string{"Old password: ", "New password: ", "Confirm new password: "}
	answers := make([]string, len(prompts))
	for i, p := range prompts {
		value, err := c.caps.Prompt(ctx, secret(p))
		if err != nil {
			out.SetText("passwd: Operation cancelled.")
			return nil
		}
		answers[i] = value
	}
	oldPassword, newPassword, confirm := answers[0], answers[1], answers[2]

	if newPassword != confirm {
		out.SetText("passwd: Passwords do not match. Password not changed.")
		return nil
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		out.SetText("passwd: " + err.Error())
		return nil
	}
	if err := c.caps.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		out.SetText("passwd: " + err.Error())
		return nil
	}
	out.SetText("Password changed successfully.")
	return nil
}
