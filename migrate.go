package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/config"
	"github.com/codenexus/codenexus-engine/pkg/database"
	"github.com/codenexus/codenexus-engine/pkg/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply, roll back or inspect the embedded schema migrations.

Examples:
  codenexus-engine migrate up        # Apply all pending migrations
  codenexus-engine migrate down 1    # Roll back the latest migration
  codenexus-engine migrate version   # Print the current schema version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationDB(cmd.Context(), func(db *database.DB, logger *zap.Logger) error {
			sqlDB := db.OpenSQL()
			defer sqlDB.Close()
			return database.RunMigrations(sqlDB, logger)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[0], err)
			}
			steps = n
		}
		return withMigrationDB(cmd.Context(), func(db *database.DB, logger *zap.Logger) error {
			sqlDB := db.OpenSQL()
			defer sqlDB.Close()
			return database.RollbackMigrations(sqlDB, steps, logger)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationDB(cmd.Context(), func(db *database.DB, logger *zap.Logger) error {
			sqlDB := db.OpenSQL()
			defer sqlDB.Close()
			version, dirty, err := database.MigrationVersion(sqlDB, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dirty {
				_, err = fmt.Fprintf(out, "%d (dirty)\n", version)
				return err
			}
			_, err = fmt.Fprintf(out, "%d\n", version)
			return err
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

// withMigrationDB loads config, connects and runs fn.
func withMigrationDB(ctx context.Context, fn func(db *database.DB, logger *zap.Logger) error) error {
	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, logger)
}
