// Package cli реализует команды folio CLI поверх auth.Service.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/iudanet/folio/internal/client/auth"
	"github.com/iudanet/folio/internal/client/iocli"
)

// Cli исполняет команды клиента
type Cli struct {
	io   iocli.IO
	auth auth.Service
	now  func() time.Time
}

// New создает CLI
func New(terminal iocli.IO, authService auth.Service) *Cli {
	return &Cli{
		io:   terminal,
		auth: authService,
		now:  time.Now,
	}
}

// readPasswordConfirmed запрашивает пароль дважды
func (c *Cli) readPasswordConfirmed(prompt, confirmPrompt string) (string, error) {
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword(confirmPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// PrintUsage печатает справку
func PrintUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Folio Client

Usage:
  folio [OPTIONS] COMMAND [ARGS]

Options:
  -version          Show version information
  -server URL       Server URL (default: http://localhost:8080)
  -db PATH          Path to local session database (default: folio-client.db)

Commands:
  register                     Register new user
  login                        Login and save the session locally
  logout                       Revoke the session on the server and delete it locally
  status                       Show local session
  whoami                       Show profile of the logged in user
  refresh                      Get a new access token
  passwd                       Change password (logs out every session)
  settings                     Show site settings
  settings-set KEY=VALUE...    Update site settings (admin only)

Settings keys:
  blogName blogDescription heroTitle heroSubtitle twitter linkedin github
  metaTitle metaDescription metaKeywords

Examples:
  folio register
  folio -server https://blog.example.com login
  folio settings-set blogName="My Blog" twitter=@me
`)
}
