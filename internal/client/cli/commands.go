package cli

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownCommand returned by Run for a command it does not know.
var ErrUnknownCommand = errors.New("unknown command")

// Run выполняет команду; args без имени команды
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "refresh":
		return c.runRefresh(ctx)
	case "passwd":
		return c.runChangePassword(ctx)
	case "settings":
		return c.runSettings(ctx)
	case "settings-set":
		return c.runSettingsSet(ctx, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}
