package store

import (
	"context"
	"database/sql"

	"github.com/gyeh/drgref/internal/model"
)

// SQLite serves lookups from a SQLite reference database through database/sql.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open handle. The caller keeps ownership of db only until
// Close is called on the returned store.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func questionMark(int) string { return "?" }

func (s *SQLite) FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error) {
	return s.query(ctx, e, OpFindAll, selectSQL(e, questionMark))
}

func (s *SQLite) FindByKey(ctx context.Context, e *model.Entity, key ...string) (model.Record, bool, error) {
	if err := checkKey(e, key); err != nil {
		return model.Record{}, false, err
	}
	recs, err := s.query(ctx, e, OpFindByKey, selectSQL(e, questionMark, keyConditions(e)...), toArgs(key)...)
	if err != nil || len(recs) == 0 {
		return model.Record{}, false, err
	}
	return recs[0], true, nil
}

func (s *SQLite) FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	if err := checkField(e, OpFindWhere, field); err != nil {
		return nil, err
	}
	q := selectSQL(e, questionMark, condition{field: field})
	return s.query(ctx, e, OpFindWhere, q, value)
}

func (s *SQLite) FindWherePrefix(ctx context.Context, e *model.Entity, field, prefix string) ([]model.Record, error) {
	if err := checkField(e, OpFindWherePrefix, field); err != nil {
		return nil, err
	}
	q := selectSQL(e, questionMark, condition{field: field, like: true})
	return s.query(ctx, e, OpFindWherePrefix, q, escapeLike(prefix)+"%")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) query(ctx context.Context, e *model.Entity, op Op, q string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, queryErr(e, op, err)
	}
	recs, err := scanRows(e, rows)
	if err != nil {
		return nil, queryErr(e, op, err)
	}
	return recs, nil
}

// scanRows reads every row into records and always closes rows.
func scanRows(e *model.Entity, rows *sql.Rows) ([]model.Record, error) {
	defer rows.Close()

	var recs []model.Record
	vals := make([]any, len(e.Columns))
	ptrs := make([]any, len(e.Columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		recs = append(recs, model.NewRecord(e, vals...))
	}
	return recs, rows.Err()
}
