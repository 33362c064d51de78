package main

import (
	"fmt"
	"os"

	"github.com/reqforge/reqforge-api/internal/config"
	"github.com/reqforge/reqforge-api/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reqforge",
	Short: "ReqForge API server",
	Long:  `ReqForge API server for workspaces and collaboration invitations.`,
	// Running without a subcommand starts the server
	RunE: runServe,
}

// Execute adds all child commands to the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// bootstrap loads configuration and builds the logger every command needs.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return cfg, log, nil
}
