package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyeh/drgref/internal/exitcode"
	"github.com/gyeh/drgref/internal/export"
	"github.com/gyeh/drgref/internal/logging"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/notice"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export lookups to xlsx or reference tables to parquet",
}

var (
	tableOpts = lookupOpts{row: -1}
	tablePane string
	tableOut  string
	entityDir string
)

var exportTableCmd = &cobra.Command{
	Use:   "table {cc CODE | adrg [CODE] | except [diag|oper] | group [diag|oper]}",
	Short: "Write the visible rows of one pane to an xlsx file",
	Example: "  drgref export table cc A01.0 --pane exclude --out exclude.xlsx\n" +
		"  drgref export table adrg AB1 --pane maindiag --filter Z94",
	Args: cobra.MinimumNArgs(1),
	RunE: runExportTable,
}

var exportEntityCmd = &cobra.Command{
	Use:   "entity [ENTITY...]",
	Short: "Write reference tables as parquet files, one per entity",
	Long:  "Writes every record of the named entities (default: all) to DIR/<Entity>.parquet.",
	RunE:  runExportEntity,
}

func init() {
	tf := exportTableCmd.Flags()
	tf.StringVar(&tableOpts.filter, "filter", "", "Filter text for the filterable panes")
	tf.IntVar(&tableOpts.row, "row", -1, "CC row to select (default: the row matching the code exactly)")
	tf.StringVar(&tablePane, "pane", "", "Pane to export (default: the first pane of the lookup)")
	tf.StringVar(&tableOut, "out", "", "Output .xlsx path (default: <pane>.xlsx)")

	exportEntityCmd.Flags().StringVar(&entityDir, "dir", ".", "Output directory")

	exportCmd.AddCommand(exportTableCmd, exportEntityCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportTable(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	s, err := openStore(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer s.Close()

	rec := &notice.Recorder{}
	env := screenEnv(s, log)
	env.Notifier = rec

	panes, err := lookup(ctx, env, args[0], args[1:], tableOpts)
	printNotices(os.Stderr, rec)
	if err != nil {
		exitFor(log, err, "lookup failed")
	}

	pane := panes[0]
	if tablePane != "" {
		pane = nil
		for _, p := range panes {
			if p.ID == tablePane {
				pane = p
			}
		}
		if pane == nil {
			log.Error().Str("pane", tablePane).Msg("pane not part of this lookup")
			os.Exit(exitcode.UsageError)
		}
	}

	out := tableOut
	if out == "" {
		out = pane.ID + ".xlsx"
	}
	n, err := export.WriteTable(out, pane.Title, pane.Projection)
	if err != nil {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitcode.ExportError)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows of %s to %s\n", n, pane.Title, out)
	return nil
}

func runExportEntity(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	entities := model.AllEntities
	if len(args) > 0 {
		entities = nil
		for _, name := range args {
			e, ok := model.EntityByName(name)
			if !ok {
				log.Error().Str("entity", name).Strs("known", model.EntityNames()).Msg("unknown entity")
				os.Exit(exitcode.UsageError)
			}
			entities = append(entities, e)
		}
	}

	s, err := openStore(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer s.Close()

	if err := os.MkdirAll(entityDir, 0o755); err != nil {
		log.Error().Err(err).Msg("create output directory")
		os.Exit(exitcode.ExportError)
	}

	for _, e := range entities {
		recs, err := s.FindAll(ctx, e)
		if err != nil {
			log.Error().Err(err).Str("entity", e.Name).Msg("read failed")
			os.Exit(exitcode.QueryError)
		}
		path := filepath.Join(entityDir, e.Name+".parquet")
		if err := writeEntityFile(path, e, recs); err != nil {
			log.Error().Err(err).Str("entity", e.Name).Msg("export failed")
			os.Exit(exitcode.ExportError)
		}
		log.Info().Str("entity", e.Name).Int("rows", len(recs)).Str("path", path).Msg("exported")
	}
	return nil
}

func writeEntityFile(path string, e *model.Entity, recs []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteEntity(f, e, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
