package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	sess, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", sess.Username)
	c.io.Printf("Role: %s\n", sess.Role)
	c.io.Printf("Access token expires: %s\n", time.Unix(sess.ExpiresAt, 0).Format(time.RFC3339))

	return nil
}

func (c *Cli) runRefresh(ctx context.Context) error {
	sess, err := c.auth.Refresh(ctx)
	if err != nil {
		return err
	}

	c.io.Println("✓ Access token refreshed")
	c.io.Printf("Access token expires: %s\n", time.Unix(sess.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}
