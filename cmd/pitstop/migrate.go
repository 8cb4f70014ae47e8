package main

import (
	"github.com/spf13/cobra"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/config"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/db"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
)

var runMigrations = db.Migrate

func newMigrateCmd() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if dbURL != "" {
				cfg.PostgresURL = dbURL
			}
			if err := runMigrations(cfg.PostgresURL); err != nil {
				return err
			}
			log.Default().Info("schema migrated")
			cmd.Println("schema up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "db", "",
		"connection string for the database (default POSTGRES_URL)")
	return cmd
}
