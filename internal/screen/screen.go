// Package screen assembles projections, the selection pipeline and the store
// into the lookup screens a display surface presents.
package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/display"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/pipeline"
	"github.com/gyeh/drgref/internal/projection"
	"github.com/gyeh/drgref/internal/store"
)

var (
	// ErrInvalidInput rejects a search before any query is issued.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means a search or key lookup matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrUnknownSource means an event named a pane or box the screen lacks.
	ErrUnknownSource = errors.New("unknown source")
)

// DefaultMinSearchLength is the shortest accepted CC search code.
const DefaultMinSearchLength = 3

// Task completes a selection change. It is nil when there is nothing left to
// run after the synchronous part of the event.
type Task func(ctx context.Context) (pipeline.Report, error)

// FilterMode selects how a pane's filter box is applied.
type FilterMode int

const (
	NoFilter FilterMode = iota
	SubstringFilter
	RegexpFilter
)

// Pane is one table of a screen.
type Pane struct {
	ID         string
	Title      string
	Projection *projection.Projection
	Filter     FilterMode
	// FilterScope is a column index or projection.AllColumns.
	FilterScope int
	// Selectable panes drive the screen's pipeline.
	Selectable bool
}

// Screen is one lookup screen. Event methods are called by a display surface;
// OnTextChanged may block on the store, OnSelectionChanged never does.
type Screen interface {
	ID() string
	Title() string
	Load(ctx context.Context) error
	Panes() []*Pane
	Pane(id string) (*Pane, bool)
	OnTextChanged(ctx context.Context, source, text string) error
	OnSelectionChanged(source string, visible int) (Task, error)
}

// Env is what every screen needs from its surroundings.
type Env struct {
	Store           store.Store
	Notifier        notice.Notifier
	Logger          zerolog.Logger
	Concurrency     int
	MinSearchLength int
}

func (e Env) notifier() notice.Notifier {
	if e.Notifier == nil {
		return notice.Discard
	}
	return e.Notifier
}

func (e Env) pipelineOptions() pipeline.Options {
	return pipeline.Options{Concurrency: e.Concurrency, Notifier: e.notifier(), Logger: e.Logger}
}

// base carries the pane list and notifier shared by all screens.
type base struct {
	id     string
	title  string
	env    Env
	notify notice.Notifier
	log    zerolog.Logger
	panes  []*Pane
}

func newBase(id, title string, env Env) base {
	return base{
		id:     id,
		title:  title,
		env:    env,
		notify: env.notifier(),
		log:    env.Logger.With().Str("screen", id).Logger(),
	}
}

func (b *base) ID() string     { return b.id }
func (b *base) Title() string  { return b.title }
func (b *base) Panes() []*Pane { return b.panes }
func (b *base) add(p *Pane)    { b.panes = append(b.panes, p) }

func (b *base) Pane(id string) (*Pane, bool) {
	for _, p := range b.panes {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// applyFilter routes a filter-box change to the pane's projection.
func (b *base) applyFilter(source, text string) error {
	p, ok := b.Pane(source)
	if !ok || p.Filter == NoFilter {
		return fmt.Errorf("%w %q on screen %s", ErrUnknownSource, source, b.id)
	}
	if p.Filter == RegexpFilter {
		if err := p.Projection.SetRegexpFilter(text, p.FilterScope); err != nil {
			b.notify.Notify(notice.Message{
				Kind: notice.Warning, Code: notice.InvalidInput, Source: p.ID,
				Text: fmt.Sprintf("过滤表达式无效: %v", err),
			})
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil
	}
	p.Projection.SetFilter(text, p.FilterScope)
	return nil
}

// queryFailed reports err to the user and resets pane.
func (b *base) queryFailed(pane *Pane, placeholder string, err error) {
	pane.Projection.Reset(placeholder)
	b.log.Error().Err(err).Str("pane", pane.ID).Msg("query failed")
	b.notify.Notify(notice.Message{
		Kind: notice.Error, Code: notice.QueryFailed, Source: pane.ID,
		Text: fmt.Sprintf("查询过程中发生错误: %v", err),
	})
}

// records holds the store records behind a selectable pane's rows.
type records struct {
	mu   sync.RWMutex
	recs []model.Record
}

func (r *records) set(recs []model.Record) {
	r.mu.Lock()
	r.recs = recs
	r.mu.Unlock()
}

func (r *records) at(i int) (model.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.recs) {
		return model.Record{}, false
	}
	return r.recs[i], true
}

// loadAll fills pane with every record of e.
func (b *base) loadAll(ctx context.Context, pane *Pane, e *model.Entity, view display.View) ([]model.Record, error) {
	recs, err := b.env.Store.FindAll(ctx, e)
	if err != nil {
		b.queryFailed(pane, "", err)
		return nil, err
	}
	pane.Projection.ReplaceRows(view.Rows(recs))
	b.log.Debug().Str("pane", pane.ID).Int("rows", len(recs)).Msg("loaded")
	return recs, nil
}

// selectVisible resolves a visible row of a selectable pane and starts the
// pipeline for it. visible < 0 clears the selection.
func selectVisible(pane *Pane, recs *records, p *pipeline.Pipeline, visible int) (Task, error) {
	if visible < 0 {
		p.Clear()
		return nil, nil
	}
	idx, ok := pane.Projection.SourceIndex(visible)
	if !ok {
		p.Clear()
		return nil, fmt.Errorf("%w: row %d of %s", ErrNotFound, visible, pane.ID)
	}
	rec, ok := recs.at(idx)
	if !ok {
		p.Clear()
		return nil, fmt.Errorf("%w: row %d of %s", ErrNotFound, idx, pane.ID)
	}
	burst := p.Select(rec)
	return burst.Run, nil
}

// All builds the four screens in menu order.
func All(env Env) ([]Screen, error) {
	adrg, err := NewADRG(env)
	if err != nil {
		return nil, err
	}
	cc, err := NewCC(env)
	if err != nil {
		return nil, err
	}
	return []Screen{cc, adrg, NewExcept(env), NewGroup(env)}, nil
}
