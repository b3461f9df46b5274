package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/exitcode"
	"github.com/gyeh/drgref/internal/screen"
)

// lookupOpts are the one-shot equivalents of the browser's interactions.
type lookupOpts struct {
	filter string
	row    int // visible CC row to select; -1 selects the row whose code equals the search
}

// lookup runs one screen interaction and returns the panes that show its
// result:
//
//	cc CODE          the CC matches, plus the exclude table of the selected row
//	adrg             every ADRG
//	adrg CODE        the five dependent panes of one ADRG
//	except [diag|oper], group [diag|oper]
func lookup(ctx context.Context, env screen.Env, name string, args []string, opts lookupOpts) ([]*screen.Pane, error) {
	switch name {
	case "cc":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: cc needs exactly one code", screen.ErrInvalidInput)
		}
		return lookupCC(ctx, env, args[0], opts)
	case "adrg":
		return lookupADRG(ctx, env, args, opts)
	case "except", "group":
		return lookupList(ctx, env, name, args, opts)
	}
	return nil, fmt.Errorf("%w: unknown screen %q", screen.ErrInvalidInput, name)
}

func lookupCC(ctx context.Context, env screen.Env, code string, opts lookupOpts) ([]*screen.Pane, error) {
	s, err := screen.NewCC(env)
	if err != nil {
		return nil, err
	}
	if err := s.Search(ctx, code); err != nil {
		return nil, err
	}
	cc, _ := s.Pane(screen.PaneCC)
	exclude, _ := s.Pane(screen.PaneExclude)

	row := opts.row
	if row < 0 {
		if i, ok := s.ExactRow(code); ok {
			row = i
		}
	}
	if row < 0 {
		// Only a prefix match; nothing selected yet.
		return []*screen.Pane{cc, exclude}, nil
	}

	task, err := s.OnSelectionChanged(screen.PaneCC, row)
	if err != nil {
		return nil, err
	}
	rep, err := task(ctx)
	if err != nil {
		return nil, err
	}
	if err := firstFailure(rep.Failures); err != nil {
		return nil, err
	}
	if err := filterPanes(ctx, s, opts.filter, exclude); err != nil {
		return nil, err
	}
	return []*screen.Pane{cc, exclude}, nil
}

func lookupADRG(ctx context.Context, env screen.Env, args []string, opts lookupOpts) ([]*screen.Pane, error) {
	s, err := screen.NewADRG(env)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
		adrg, _ := s.Pane(screen.PaneADRG)
		return []*screen.Pane{adrg}, filterPanes(ctx, s, opts.filter, adrg)
	}

	rep, err := s.SelectByCode(ctx, args[0])
	if err != nil {
		return nil, err
	}
	deps := s.Pipeline().Dependents()
	if len(rep.Failures) == len(deps) {
		return nil, firstFailure(rep.Failures)
	}
	panes := make([]*screen.Pane, 0, len(deps))
	for _, d := range deps {
		p, _ := s.Pane(d.Name)
		panes = append(panes, p)
	}
	return panes, filterPanes(ctx, s, opts.filter, panes...)
}

func lookupList(ctx context.Context, env screen.Env, name string, args []string, opts lookupOpts) ([]*screen.Pane, error) {
	build := screen.NewExcept
	if name == "group" {
		build = screen.NewGroup
	}
	s := build(env)
	panes := s.Panes()
	if len(args) > 0 {
		p, ok := s.Pane(name + args[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %q list", screen.ErrInvalidInput, name, args[0])
		}
		if err := s.LoadPane(ctx, p.ID); err != nil {
			return nil, err
		}
		panes = []*screen.Pane{p}
	} else if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return panes, filterPanes(ctx, s, opts.filter, panes...)
}

// filterPanes applies the same filter text to every filterable pane.
func filterPanes(ctx context.Context, s screen.Screen, filter string, panes ...*screen.Pane) error {
	if filter == "" {
		return nil
	}
	for _, p := range panes {
		if p.Filter == screen.NoFilter {
			continue
		}
		if err := s.OnTextChanged(ctx, p.ID, filter); err != nil {
			return err
		}
	}
	return nil
}

func firstFailure(failures map[string]error) error {
	for _, err := range failures {
		return err
	}
	return nil
}

// exitFor logs err and exits with the matching code. Store failures and
// anything unclassified exit with QueryError.
func exitFor(log zerolog.Logger, err error, msg string) {
	code := exitcode.QueryError
	switch {
	case errors.Is(err, screen.ErrInvalidInput):
		code = exitcode.ValidationError
	case errors.Is(err, screen.ErrNotFound):
		code = exitcode.NotFound
	}
	log.Error().Err(err).Msg(msg)
	os.Exit(code)
}
