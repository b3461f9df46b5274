// Package pipeline refreshes the dependent panes of a screen when the user
// selects a row in its primary pane.
//
// A refresh happens in two steps. Select (or Clear) runs synchronously on the
// caller's goroutine: it supersedes any outstanding burst and resets every
// dependent projection. Burst.Run then issues the dependent queries
// concurrently and installs all results together, unless a newer Select or
// Clear has been observed in the meantime, in which case the results are
// dropped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/drgref/internal/display"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/projection"
	"github.com/gyeh/drgref/internal/store"
)

var burstTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "drgref_refresh_bursts_total",
	Help: "Dependent refresh bursts by pipeline and outcome",
}, []string{"pipeline", "outcome"})

// ErrSuperseded is returned by Burst.Run when a newer selection or clear
// replaced the burst before its results could be applied.
var ErrSuperseded = errors.New("refresh superseded")

// State is the lifecycle of one dependent pane.
type State int

const (
	Idle State = iota
	Loading
	Populated
	Empty
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Populated:
		return "populated"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dependent is one pane refreshed by the pipeline.
type Dependent struct {
	Relationship
	View       display.View
	Projection *projection.Projection
}

// NewDependent creates the projection for rel using view's headers.
func NewDependent(rel Relationship, view display.View) *Dependent {
	return &Dependent{Relationship: rel, View: view, Projection: view.New(rel.Name)}
}

// Options tune a Pipeline. The zero value is usable.
type Options struct {
	// Concurrency bounds the dependent queries in flight per burst; <= 0
	// means one goroutine per dependent.
	Concurrency int
	Notifier    notice.Notifier
	Logger      zerolog.Logger
}

// Pipeline owns a fixed set of dependents for one primary pane.
type Pipeline struct {
	name   string
	store  store.Store
	deps   []*Dependent
	limit  int
	notify notice.Notifier
	log    zerolog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	states []State
}

// New validates every relationship and builds the pipeline.
func New(name string, s store.Store, deps []*Dependent, opts Options) (*Pipeline, error) {
	for _, d := range deps {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	n := opts.Notifier
	if n == nil {
		n = notice.Discard
	}
	p := &Pipeline{
		name:   name,
		store:  s,
		deps:   deps,
		limit:  opts.Concurrency,
		notify: n,
		log:    opts.Logger.With().Str("pipeline", name).Logger(),
		states: make([]State, len(deps)),
	}
	for _, d := range deps {
		d.Projection.Reset(d.ClearText)
	}
	return p, nil
}

// Dependents returns the dependents in declaration order.
func (p *Pipeline) Dependents() []*Dependent {
	return p.deps
}

// Dependent returns the dependent with the given relationship name.
func (p *Pipeline) Dependent(name string) (*Dependent, bool) {
	for _, d := range p.deps {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// States returns the current state of every dependent.
func (p *Pipeline) States() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]State, len(p.states))
	copy(out, p.states)
	return out
}

// Seq returns the sequence number of the latest Select or Clear.
func (p *Pipeline) Seq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// advance supersedes the outstanding burst and resets every dependent. It
// must be called with p.mu held.
func (p *Pipeline) advance(state State, placeholder func(*Dependent) string) uint64 {
	p.seq++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	for i, d := range p.deps {
		d.Projection.Reset(placeholder(d))
		p.states[i] = state
	}
	return p.seq
}

// Select starts a refresh for rec. All dependents are reset before Select
// returns; the queries run when the returned burst is Run.
func (p *Pipeline) Select(rec model.Record) *Burst {
	p.mu.Lock()
	seq := p.advance(Loading, func(*Dependent) string { return "" })
	p.mu.Unlock()
	return &Burst{p: p, seq: seq, rec: rec}
}

// Clear resets every dependent to its cleared state and drops any
// outstanding burst.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	p.advance(Idle, func(d *Dependent) string { return d.ClearText })
	p.mu.Unlock()
}

// Refresh is Select followed by Run.
func (p *Pipeline) Refresh(ctx context.Context, rec model.Record) (Report, error) {
	return p.Select(rec).Run(ctx)
}

// Burst is the set of dependent queries for one selection.
type Burst struct {
	p   *Pipeline
	seq uint64
	rec model.Record
}

// Seq returns the burst's sequence number.
func (b *Burst) Seq() uint64 { return b.seq }

// Report describes an applied burst.
type Report struct {
	Seq uint64
	// Rows holds the row count per dependent name.
	Rows map[string]int
	// Failures holds the query error per failed dependent name.
	Failures map[string]error
}

type result struct {
	recs []model.Record
	err  error
}

// Run queries every dependent and applies the results. Failed dependents are
// reset to their empty text and reported once each through the notifier; the
// others are still applied. Run returns ErrSuperseded, and applies nothing,
// if the pipeline moved on while the queries were in flight.
func (b *Burst) Run(ctx context.Context) (Report, error) {
	p := b.p
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if b.seq != p.seq {
		p.mu.Unlock()
		burstTotal.WithLabelValues(p.name, "superseded").Inc()
		return Report{Seq: b.seq}, ErrSuperseded
	}
	p.cancel = cancel
	p.mu.Unlock()

	start := time.Now()
	results := make([]result, len(p.deps))

	var g errgroup.Group
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}
	for i, d := range p.deps {
		key, err := d.DeriveKey(b.rec)
		if err != nil {
			p.log.Debug().Err(err).Str("dependent", d.Name).Uint64("seq", b.seq).Msg("no lookup key")
			continue
		}
		g.Go(func() error {
			recs, err := p.store.FindWhere(ctx, d.Entity, d.Field, key)
			results[i] = result{recs: recs, err: err}
			// Failures are per dependent; never cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	return b.apply(results, time.Since(start))
}

func (b *Burst) apply(results []result, dur time.Duration) (Report, error) {
	rep, failed, err := b.install(results, dur)
	// Notify outside the lock so a notifier may call back into the pipeline.
	for _, m := range failed {
		b.p.notify.Notify(m)
	}
	return rep, err
}

func (b *Burst) install(results []result, dur time.Duration) (Report, []notice.Message, error) {
	p := b.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if b.seq != p.seq {
		p.log.Debug().Uint64("seq", b.seq).Uint64("latest", p.seq).Msg("dropping superseded refresh")
		burstTotal.WithLabelValues(p.name, "superseded").Inc()
		return Report{Seq: b.seq}, nil, ErrSuperseded
	}
	p.cancel = nil

	rep := Report{Seq: b.seq, Rows: make(map[string]int, len(p.deps))}
	var failed []notice.Message
	for i, d := range p.deps {
		res := results[i]
		switch {
		case res.err != nil:
			if rep.Failures == nil {
				rep.Failures = make(map[string]error)
			}
			rep.Failures[d.Name] = res.err
			d.Projection.Reset(d.EmptyText)
			p.states[i] = Empty
			failed = append(failed, notice.Message{
				Kind:   notice.Error,
				Code:   notice.QueryFailed,
				Source: d.Name,
				Text:   fmt.Sprintf("查询失败: %v", res.err),
			})
		case len(res.recs) == 0:
			d.Projection.Reset(d.EmptyText)
			p.states[i] = Empty
		default:
			d.Projection.ReplaceRows(d.View.Rows(res.recs))
			p.states[i] = Populated
		}
		rep.Rows[d.Name] = len(res.recs)
	}

	outcome := "applied"
	if len(failed) > 0 {
		outcome = "partial"
	}
	burstTotal.WithLabelValues(p.name, outcome).Inc()
	p.log.Debug().Uint64("seq", b.seq).Int("failed", len(failed)).Dur("dur", dur).Msg("refresh applied")
	return rep, failed, nil
}
