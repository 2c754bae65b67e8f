package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runChangePassword(ctx context.Context) error {
	c.io.Println("=== Change Password ===")
	c.io.Println()

	current, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	next, err := c.readPasswordConfirmed("New password: ", "Confirm new password: ")
	if err != nil {
		return err
	}

	if err := c.auth.ChangePassword(ctx, current, next); err != nil {
		return err
	}

	c.io.Println("✓ Password updated.")
	c.io.Println("All sessions have been revoked, please run 'folio login' again.")

	return nil
}
