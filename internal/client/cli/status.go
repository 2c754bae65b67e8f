package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/folio/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	sess, err := c.auth.Session(ctx)
	if errors.Is(err, auth.ErrNotLoggedIn) {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'folio login' to authenticate.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	expiresAt := time.Unix(sess.ExpiresAt, 0)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Server: %s\n", sess.ServerURL)
	c.io.Printf("Username: %s\n", sess.Username)
	c.io.Printf("Email: %s\n", sess.Email)
	c.io.Printf("Role: %s\n", sess.Role)
	c.io.Printf("Access token expires: %s\n", expiresAt.Format(time.RFC3339))

	if remaining := expiresAt.Sub(c.now()); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		// Следующая команда сама обновит токен через refresh
		c.io.Println("Access token has expired, it will be refreshed on next request.")
	}

	return nil
}

func (c *Cli) runWhoami(ctx context.Context) error {
	user, err := c.auth.Me(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("ID: %s\n", user.ID)
	c.io.Printf("Name: %s\n", user.Name)
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Email: %s\n", user.Email)
	c.io.Printf("Role: %s\n", user.Role)
	if user.LastLogin != nil {
		c.io.Printf("Last login: %s\n", user.LastLogin.Format(time.RFC3339))
	}

	return nil
}
