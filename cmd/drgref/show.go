package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gyeh/drgref/internal/exitcode"
	"github.com/gyeh/drgref/internal/logging"
	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/projection"
	"github.com/gyeh/drgref/internal/screen"
)

var showOpts = lookupOpts{row: -1}

var showCmd = &cobra.Command{
	Use:   "show {cc CODE | adrg [CODE] | except [diag|oper] | group [diag|oper]}",
	Short: "Print one lookup as tables",
	Example: "  drgref show cc A01.0\n" +
		"  drgref show adrg AB1 --filter Z94\n" +
		"  drgref show except diag --filter 检查",
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"cc", "adrg", "except", "group"},
	RunE:      runShow,
}

func init() {
	f := showCmd.Flags()
	f.StringVar(&showOpts.filter, "filter", "", "Filter text for the filterable panes")
	f.IntVar(&showOpts.row, "row", -1, "CC row to select (default: the row matching the code exactly)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
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

	panes, err := lookup(ctx, env, args[0], args[1:], showOpts)
	printNotices(os.Stderr, rec)
	if err != nil {
		exitFor(log, err, "lookup failed")
	}

	out := cmd.OutOrStdout()
	for _, p := range panes {
		printPane(out, p)
	}
	return nil
}

var (
	paneTitleStyle  = lipgloss.NewStyle().Bold(true)
	paneHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	paneCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	paneHighStyle   = paneCellStyle.Foreground(lipgloss.Color("9"))
	paneLowStyle    = paneCellStyle.Foreground(lipgloss.Color("10"))
)

func printPane(w io.Writer, p *screen.Pane) {
	title := fmt.Sprintf("%s (%d/%d)", p.Title, p.Projection.VisibleCount(), p.Projection.TotalRows())
	fmt.Fprintln(w, paneTitleStyle.Render(title))

	visible := p.Projection.Visible()
	if len(visible) == 0 {
		if ph := p.Projection.Placeholder(); ph != "" {
			fmt.Fprintln(w, "  "+ph)
		}
		fmt.Fprintln(w)
		return
	}

	data := make([][]string, len(visible))
	for i, r := range visible {
		data[i] = r.Texts()
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(p.Projection.Columns()...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return paneHeaderStyle
			}
			if col < len(visible[row]) {
				switch visible[row][col].Emphasis {
				case projection.EmphasisHigh:
					return paneHighStyle
				case projection.EmphasisLow:
					return paneLowStyle
				}
			}
			return paneCellStyle
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
}

func printNotices(w io.Writer, rec *notice.Recorder) {
	for _, m := range rec.Drain() {
		fmt.Fprintf(w, "[%s] %s\n", m.Kind, m)
	}
}
