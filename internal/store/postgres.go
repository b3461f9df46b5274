package store

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/drgref/internal/model"
)

// Postgres serves lookups from a mirrored reference schema over a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func (s *Postgres) FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error) {
	return s.query(ctx, e, OpFindAll, selectSQL(e, dollar))
}

func (s *Postgres) FindByKey(ctx context.Context, e *model.Entity, key ...string) (model.Record, bool, error) {
	if err := checkKey(e, key); err != nil {
		return model.Record{}, false, err
	}
	recs, err := s.query(ctx, e, OpFindByKey, selectSQL(e, dollar, keyConditions(e)...), toArgs(key)...)
	if err != nil || len(recs) == 0 {
		return model.Record{}, false, err
	}
	return recs[0], true, nil
}

func (s *Postgres) FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	if err := checkField(e, OpFindWhere, field); err != nil {
		return nil, err
	}
	return s.query(ctx, e, OpFindWhere, selectSQL(e, dollar, condition{field: field}), value)
}

func (s *Postgres) FindWherePrefix(ctx context.Context, e *model.Entity, field, prefix string) ([]model.Record, error) {
	if err := checkField(e, OpFindWherePrefix, field); err != nil {
		return nil, err
	}
	q := selectSQL(e, dollar, condition{field: field, like: true})
	return s.query(ctx, e, OpFindWherePrefix, q, escapeLike(prefix)+"%")
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) query(ctx context.Context, e *model.Entity, op Op, q string, args ...any) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, queryErr(e, op, err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Record, error) {
		vals, err := row.Values()
		if err != nil {
			return model.Record{}, err
		}
		return model.NewRecord(e, vals...), nil
	})
	if err != nil {
		return nil, queryErr(e, op, err)
	}
	return recs, nil
}
