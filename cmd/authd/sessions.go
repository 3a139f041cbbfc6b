package main

import (
	"github.com/spf13/cobra"

	"github.com/dtroode/ansv-auth/internal/config"
	"github.com/dtroode/ansv-auth/internal/logger"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored refresh sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete sessions whose refresh token has expired",
		RunE:  runPrune,
	})
	return cmd
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	st, err := openStores(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	n, err := newTokenService(cfg, st, log).PruneExpired(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Pruned %d expired sessions\n", n)
	return nil
}
