package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/model"
)

var (
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drgref_store_queries_total",
		Help: "Store queries by entity, operation and result",
	}, []string{"entity", "op", "result"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drgref_store_query_duration_seconds",
		Help:    "Store query latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"entity", "op"})

	queryRows = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drgref_store_query_rows",
		Help:    "Rows returned per store query",
		Buckets: []float64{0, 1, 5, 25, 100, 500, 2500, 10000},
	}, []string{"entity"})
)

type instrumented struct {
	next Store
	log  zerolog.Logger
}

// Instrument wraps s so every query is logged at debug level and recorded in
// the store metrics.
func Instrument(s Store, log zerolog.Logger) Store {
	return &instrumented{next: s, log: log.With().Str("component", "store").Logger()}
}

func (s *instrumented) observe(e *model.Entity, op Op, start time.Time, n int, err error) {
	dur := time.Since(start)
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case n == 0:
		result = "empty"
	}
	queryTotal.WithLabelValues(e.Name, string(op), result).Inc()
	queryDuration.WithLabelValues(e.Name, string(op)).Observe(dur.Seconds())
	if err != nil {
		s.log.Warn().Err(err).Str("entity", e.Name).Str("op", string(op)).Dur("dur", dur).Msg("query failed")
		return
	}
	queryRows.WithLabelValues(e.Name).Observe(float64(n))
	s.log.Debug().Str("entity", e.Name).Str("op", string(op)).Int("rows", n).Dur("dur", dur).Msg("query")
}

func (s *instrumented) FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error) {
	start := time.Now()
	recs, err := s.next.FindAll(ctx, e)
	s.observe(e, OpFindAll, start, len(recs), err)
	return recs, err
}

func (s *instrumented) FindByKey(ctx context.Context, e *model.Entity, key ...string) (model.Record, bool, error) {
	start := time.Now()
	rec, ok, err := s.next.FindByKey(ctx, e, key...)
	n := 0
	if ok {
		n = 1
	}
	s.observe(e, OpFindByKey, start, n, err)
	return rec, ok, err
}

func (s *instrumented) FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	start := time.Now()
	recs, err := s.next.FindWhere(ctx, e, field, value)
	s.observe(e, OpFindWhere, start, len(recs), err)
	return recs, err
}

func (s *instrumented) FindWherePrefix(ctx context.Context, e *model.Entity, field, prefix string) ([]model.Record, error) {
	start := time.Now()
	recs, err := s.next.FindWherePrefix(ctx, e, field, prefix)
	s.observe(e, OpFindWherePrefix, start, len(recs), err)
	return recs, err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
