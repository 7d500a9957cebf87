// Package main is the entry point for the Gatekeeper database migration tool.
// It applies and reports schema migrations for the configured driver.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prn-tf/gatekeeper/internal/config"
	"github.com/prn-tf/gatekeeper/internal/database"
	"github.com/prn-tf/gatekeeper/internal/logging"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var configPath string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "gatekeeper-migrate: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gatekeeper-migrate",
		Short:         "Gatekeeper migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE: withDatabase(func(cmd *cobra.Command, db repository.Database) error {
				if err := db.Migrate(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, db)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			RunE: withDatabase(func(cmd *cobra.Command, db repository.Database) error {
				// Postgres can list every goose migration with its state.
				if s, ok := db.(interface{ Status(context.Context) error }); ok {
					if err := s.Status(cmd.Context()); err != nil {
						return err
					}
				}
				return printVersion(cmd, db)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println("Gatekeeper Migration Tool")
				cmd.Printf("Version: %s\n", Version)
				cmd.Printf("Build Time: %s\n", BuildTime)
				cmd.Printf("Git Commit: %s\n", GitCommit)
			},
		},
	)

	return cmd
}

// withDatabase opens the configured database without migrating it.
func withDatabase(fn func(cmd *cobra.Command, db repository.Database) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger := logging.New(cfg.Logging).Level(zerolog.WarnLevel)
		result, err := database.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		defer result.Database.Close()

		cmd.Printf("Driver: %s\n", cfg.Database.Driver)
		return fn(cmd, result.Database)
	}
}

func printVersion(cmd *cobra.Command, db repository.Database) error {
	version, err := db.Version(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	cmd.Printf("Schema version: %d\n", version)
	return nil
}
