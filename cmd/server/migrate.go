package main

import (
	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		db, err := database.Connect(cfg, log)
		if err != nil {
			log.Error("failed to connect to database", zap.Error(err))
			return err
		}
		defer database.Close(db)

		return database.Migrate(db, log)
	},
}
