package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/terraincognita07/cyclecast/internal/services"
)

type PasswordResetter interface {
	ResetPassword(ctx context.Context, rawEmail string) (string, error)
	SetPassword(ctx context.Context, rawEmail string, password string, confirmPassword string) error
}

// RunResetPassword generates a temporary password for the account and prints it.
func RunResetPassword(ctx context.Context, auth PasswordResetter, email string, out io.Writer) error {
	temporary, err := auth.ResetPassword(ctx, email)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporary)
	fmt.Fprintln(out, "Share it over a trusted channel and change it after the next login.")
	return nil
}

// RunSetPassword asks for the new password twice instead of generating one.
func RunSetPassword(ctx context.Context, auth PasswordResetter, email string, prompt PasswordReader, out io.Writer) error {
	password, err := prompt("New password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := prompt("Repeat password: ")
	if err != nil {
		return fmt.Errorf("read password confirmation: %w", err)
	}

	if err := auth.SetPassword(ctx, email, password, confirm); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	fmt.Fprintln(out, "Password updated")
	return nil
}

var _ PasswordResetter = (*services.AuthService)(nil)
