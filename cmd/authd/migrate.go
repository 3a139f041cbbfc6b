package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dtroode/ansv-auth/database"
	"github.com/dtroode/ansv-auth/internal/config"
	"github.com/dtroode/ansv-auth/internal/repository/sqlite"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Apply all pending migrations to the database selected by DATABASE_DRIVER and DATABASE_DSN.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		applied, err := database.MigratePostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			cmd.Println("Database is up to date")
			return nil
		}
		cmd.Printf("Applied migrations: %v\n", applied)
		return nil

	case config.DriverSQLite:
		conn, err := sqlite.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		cmd.Println("Database is up to date")
		return nil

	default:
		return errors.New("migrate needs a postgres or sqlite database")
	}
}
