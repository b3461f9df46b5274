package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/drgref/internal/db"
	"github.com/gyeh/drgref/internal/exitcode"
	"github.com/gyeh/drgref/internal/logging"
	"github.com/gyeh/drgref/internal/model"
)

var (
	mirrorDSN     string
	mirrorMigrate bool
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy every reference table from the configured store into Postgres",
	RunE:  runMirror,
}

func init() {
	f := mirrorCmd.Flags()
	f.StringVar(&mirrorDSN, "to-dsn", os.Getenv("DRGREF_MIRROR_DSN"), "Target Postgres connection string (or set DRGREF_MIRROR_DSN)")
	f.BoolVar(&mirrorMigrate, "migrate", true, "Create missing target tables first")
	rootCmd.AddCommand(mirrorCmd)
}

func runMirror(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if !strings.HasPrefix(mirrorDSN, "postgres://") && !strings.HasPrefix(mirrorDSN, "postgresql://") {
		log.Error().Msg("--to-dsn must be a postgres:// URL")
		os.Exit(exitcode.UsageError)
	}

	src, err := openStore(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("source connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer src.Close()

	pool, err := db.NewPool(ctx, mirrorDSN, int32(cfg.MaxConns))
	if err != nil {
		log.Error().Err(err).Msg("target connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if mirrorMigrate {
		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.QueryError)
		}
	}

	stats, err := db.Mirror(ctx, src, pool, log)
	if err != nil {
		log.Error().Err(err).Msg("mirror failed")
		os.Exit(exitcode.QueryError)
	}

	counts, err := db.TableCounts(ctx, pool)
	if err != nil {
		log.Error().Err(err).Msg("verify failed")
		os.Exit(exitcode.QueryError)
	}
	var total int64
	for _, e := range model.AllEntities {
		if counts[e.Table] != stats.Rows[e.Name] {
			log.Error().Str("entity", e.Name).
				Int64("copied", stats.Rows[e.Name]).Int64("found", counts[e.Table]).
				Msg("row count mismatch")
			os.Exit(exitcode.QueryError)
		}
		total += counts[e.Table]
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Mirror complete: %d rows in %d tables (%.1fs)\n",
		total, len(model.AllEntities), stats.Duration.Seconds())
	return nil
}
