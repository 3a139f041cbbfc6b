package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the authd command tree. All settings come from the
// environment, see internal/config.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - account registration, login and session service",
		Long: `authd registers accounts, logs users in with a short-lived access token
and a rotating refresh token, and keeps exactly one session per user.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSessionsCmd())

	return cmd
}
