package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/model"
	embedsql "github.com/gyeh/drgref/internal/sql"
)

// Source is the read side of a mirror.
type Source interface {
	FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error)
}

// MirrorStats reports rows copied per entity.
type MirrorStats struct {
	Rows     map[string]int64
	Duration time.Duration
}

// Mirror replaces the contents of every reference table in pool with the rows
// of src. The whole copy runs in one transaction, so readers see either the
// old or the new tables.
func Mirror(ctx context.Context, src Source, pool *pgxpool.Pool, log zerolog.Logger) (*MirrorStats, error) {
	start := time.Now()
	stats := &MirrorStats{Rows: make(map[string]int64, len(model.AllEntities))}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin mirror tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, embedsql.TruncateReference); err != nil {
		return nil, fmt.Errorf("truncate reference tables: %w", err)
	}

	for _, e := range model.AllEntities {
		recs, err := src.FindAll(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e, err)
		}

		ch := make(chan model.Record, 256)
		go func() {
			defer close(ch)
			for _, r := range recs {
				select {
				case ch <- r:
				case <-ctx.Done():
					return
				}
			}
		}()

		source := NewChannelSource(ch)
		n, err := tx.CopyFrom(ctx, pgx.Identifier{e.Table}, e.ColumnNames(), source)
		if err != nil {
			// Unblock the producer before returning.
			for range ch {
			}
			return nil, fmt.Errorf("copy %s: %w", e, err)
		}
		stats.Rows[e.Name] = n
		log.Info().Str("entity", e.Name).Int64("rows", n).Msg("mirrored")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit mirror tx: %w", err)
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// TableCounts returns the row count of every reference table, keyed by
// physical table name.
func TableCounts(ctx context.Context, pool *pgxpool.Pool) (map[string]int64, error) {
	rows, err := pool.Query(ctx, embedsql.CountRows)
	if err != nil {
		return nil, fmt.Errorf("count reference rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(model.AllEntities))
	for rows.Next() {
		var table string
		var n int64
		if err := rows.Scan(&table, &n); err != nil {
			return nil, fmt.Errorf("scan row count: %w", err)
		}
		counts[table] = n
	}
	return counts, rows.Err()
}
