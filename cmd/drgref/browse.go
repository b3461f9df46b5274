package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/drgref/internal/exitcode"
	"github.com/gyeh/drgref/internal/logging"
	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/screen"
	"github.com/gyeh/drgref/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the reference tables in the terminal",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// The browser owns the terminal; startup failures still go to stderr.
	stderr := logging.Setup(cfg.LogFormat)
	log, closeLog, err := logging.SetupFile(cfg.LogFile)
	if err != nil {
		stderr.Error().Err(err).Str("path", cfg.LogFile).Msg("open log file")
		os.Exit(exitcode.UsageError)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, log)
	if err != nil {
		stderr.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer s.Close()

	rec := &notice.Recorder{}
	env := screenEnv(s, log)
	env.Notifier = rec
	screens, err := screen.All(env)
	if err != nil {
		stderr.Error().Err(err).Msg("build screens")
		os.Exit(exitcode.UsageError)
	}

	if err := tui.Run(ctx, screens, rec, log); err != nil {
		stderr.Error().Err(err).Msg("browser failed")
		os.Exit(exitcode.UsageError)
	}
	return nil
}
