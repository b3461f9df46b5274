package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/drgref/internal/config"
	"github.com/gyeh/drgref/internal/db"
	"github.com/gyeh/drgref/internal/exitcode"
	"github.com/gyeh/drgref/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the reference tables in the configured database",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	switch cfg.Driver {
	case config.DriverSQLite:
		sdb, err := db.OpenSQLite(ctx, cfg.DSN, false, 1)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer sdb.Close()
		if err := db.ApplySQLiteMigrations(ctx, sdb, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.QueryError)
		}

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DSN, 1)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.QueryError)
		}

	case config.DriverMySQL:
		gdb, err := db.OpenGorm(ctx, cfg.DSN, 1)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		if err := db.AutoMigrate(ctx, gdb, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.QueryError)
		}
	}

	log.Info().Str("driver", cfg.Driver).Msg("all migrations applied successfully")
	return nil
}
