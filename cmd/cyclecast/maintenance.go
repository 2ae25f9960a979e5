package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/cyclecast/internal/cli"
	"github.com/terraincognita07/cyclecast/internal/config"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/security"
	"github.com/terraincognita07/cyclecast/internal/services"
	"go.uber.org/zap"
)

func newReportCommand() *cobra.Command {
	var email string
	command := &cobra.Command{
		Use:   "report",
		Short: "Print the current cycle summary for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForMaintenance()
			if err != nil {
				return err
			}
			repositories, err := openRepositories(cfg)
			if err != nil {
				return err
			}
			cycles := services.NewCycleService(repositories.DailyLogs, repositories.Users, nil, cfg.Location, zap.NewNop())
			return cli.RunReport(cmd.Context(), repositories.Users, cycles, email, time.Now(), cmd.OutOrStdout())
		},
	}
	command.Flags().StringVar(&email, "email", "", "account email")
	_ = command.MarkFlagRequired("email")
	return command
}

func newResetPasswordCommand() *cobra.Command {
	var (
		email  string
		prompt bool
	)
	command := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset an account password",
		Long: `Reset an account password.

By default a temporary password is generated and printed. With --prompt the new password
is read from the terminal instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForMaintenance()
			if err != nil {
				return err
			}
			repositories, err := openRepositories(cfg)
			if err != nil {
				return err
			}
			auth := services.NewAuthService(repositories.Users)
			if prompt {
				reader := cli.TerminalPasswordReader(os.Stdin, cmd.OutOrStdout())
				return cli.RunSetPassword(cmd.Context(), auth, email, reader, cmd.OutOrStdout())
			}
			return cli.RunResetPassword(cmd.Context(), auth, email, cmd.OutOrStdout())
		},
	}
	command.Flags().StringVar(&email, "email", "", "account email")
	command.Flags().BoolVar(&prompt, "prompt", false, "read the new password from the terminal")
	_ = command.MarkFlagRequired("email")
	return command
}

func newSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a random SECRET_KEY value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := security.SecretKey()
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
}

func openRepositories(cfg *config.Config) (*db.Repositories, error) {
	database, err := db.OpenSQLite(cfg.DBPath, nil)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	return db.NewRepositories(database), nil
}
