package cli

import (
	"context"
	"fmt"

	pkgapi "github.com/iudanet/folio/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	name, err := c.io.ReadInput("Name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.readPasswordConfirmed("Password: ", "Confirm password: ")
	if err != nil {
		return err
	}

	user, err := c.auth.Register(ctx, pkgapi.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Username: username,
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", user.ID)
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Role: %s\n", user.Role)
	c.io.Println()
	c.io.Println("Please run 'folio login' to start a session.")

	return nil
}
