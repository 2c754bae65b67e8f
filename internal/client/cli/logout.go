package cli

import (
	"context"
	"fmt"
)

// runLogout отзывает refresh token на сервере и удаляет локальную сессию.
// Пользователь и сервер читаются из сессии до ее удаления.
func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	sess, err := c.auth.Session(ctx)
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Printf("✓ Logged out %s from %s\n", sess.Username, sess.ServerURL)
	c.io.Println("Your local session has been deleted.")

	return nil
}
