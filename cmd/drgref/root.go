package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/drgref/internal/config"
	"github.com/gyeh/drgref/internal/db"
	"github.com/gyeh/drgref/internal/screen"
	"github.com/gyeh/drgref/internal/store"
)

var (
	cfg        = config.Default()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "drgref",
	Short: "DRG grouping reference browser",
	Long: "Looks up complications (CC/MCC), ADRG groups and their code pools, should-not-code lists\n" +
		"and grouping indexes in the DRG reference database.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&cfg.Driver, "driver", cfg.Driver, "Store driver: sqlite, postgres or mysql")
	pf.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Database file or connection string (or set DRGREF_DSN)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json or auto")
	pf.StringVar(&cfg.LogFile, "log-file", "", "Log file for the terminal browser")
	pf.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Maximum open database connections")
	pf.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Dependent queries in flight per selection")
	pf.IntVar(&cfg.MinSearchLength, "min-length", cfg.MinSearchLength, "Shortest accepted complication search code")
}

// loadConfig layers defaults, the config file, DRGREF_DSN and explicit flags,
// in that order.
func loadConfig(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	merged, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return err
	}

	overrides := map[string]func(){
		"driver":      func() { merged.Driver = cfg.Driver },
		"dsn":         func() { merged.DSN = cfg.DSN },
		"log-format":  func() { merged.LogFormat = cfg.LogFormat },
		"log-file":    func() { merged.LogFile = cfg.LogFile },
		"max-conns":   func() { merged.MaxConns = cfg.MaxConns },
		"concurrency": func() { merged.Concurrency = cfg.Concurrency },
		"min-length":  func() { merged.MinSearchLength = cfg.MinSearchLength },
		"listen":      func() { merged.Listen = cfg.Listen },
	}
	for name, apply := range overrides {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}

	if err := merged.Validate(); err != nil {
		return err
	}
	cfg = merged
	return nil
}

// openStore opens the configured backend and wraps it with logging and
// metrics.
func openStore(ctx context.Context, log zerolog.Logger) (store.Store, error) {
	var s store.Store
	switch cfg.Driver {
	case config.DriverSQLite:
		sdb, err := db.OpenSQLite(ctx, cfg.DSN, true, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		s = store.NewSQLite(sdb)
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DSN, int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		s = store.NewPostgres(pool)
	case config.DriverMySQL:
		gdb, err := db.OpenGorm(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		s = store.NewGorm(gdb)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	log.Debug().Str("driver", cfg.Driver).Msg("store opened")
	return store.Instrument(s, log), nil
}

func screenEnv(s store.Store, log zerolog.Logger) screen.Env {
	return screen.Env{
		Store:           s,
		Logger:          log,
		Concurrency:     cfg.Concurrency,
		MinSearchLength: cfg.MinSearchLength,
	}
}
