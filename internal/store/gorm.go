package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gyeh/drgref/internal/model"
)

// Gorm serves lookups through a gorm handle; it is the MySQL backend.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// scope builds the base statement for e. Rows are fetched as generic values so
// one code path serves every entity.
func (s *Gorm) scope(ctx context.Context, e *model.Entity) *gorm.DB {
	cols := make([]clause.Column, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = clause.Column{Name: c.Name}
	}
	order := make([]clause.OrderByColumn, len(e.Key))
	for i, k := range e.Key {
		order[i] = clause.OrderByColumn{Column: clause.Column{Name: k}}
	}
	return s.db.WithContext(ctx).
		Table(e.Table).
		Clauses(clause.Select{Columns: cols}, clause.OrderBy{Columns: order})
}

func (s *Gorm) FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error) {
	return s.fetch(e, OpFindAll, s.scope(ctx, e))
}

func (s *Gorm) FindByKey(ctx context.Context, e *model.Entity, key ...string) (model.Record, bool, error) {
	if err := checkKey(e, key); err != nil {
		return model.Record{}, false, err
	}
	tx := s.scope(ctx, e)
	for i, k := range e.Key {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: k}, Value: key[i]})
	}
	recs, err := s.fetch(e, OpFindByKey, tx)
	if err != nil || len(recs) == 0 {
		return model.Record{}, false, err
	}
	return recs[0], true, nil
}

func (s *Gorm) FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	if err := checkField(e, OpFindWhere, field); err != nil {
		return nil, err
	}
	return s.fetch(e, OpFindWhere, s.whereTx(ctx, e, field, value))
}

func (s *Gorm) FindWherePrefix(ctx context.Context, e *model.Entity, field, prefix string) ([]model.Record, error) {
	if err := checkField(e, OpFindWherePrefix, field); err != nil {
		return nil, err
	}
	return s.fetch(e, OpFindWherePrefix, s.prefixTx(ctx, e, field, prefix))
}

func (s *Gorm) whereTx(ctx context.Context, e *model.Entity, field, value string) *gorm.DB {
	return s.scope(ctx, e).Where(clause.Eq{Column: clause.Column{Name: field}, Value: value})
}

// prefixTx relies on MySQL's default LIKE escape character, the backslash.
func (s *Gorm) prefixTx(ctx context.Context, e *model.Entity, field, prefix string) *gorm.DB {
	return s.scope(ctx, e).Where(clause.Like{Column: clause.Column{Name: field}, Value: escapeLike(prefix) + "%"})
}

func (s *Gorm) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Gorm) fetch(e *model.Entity, op Op, tx *gorm.DB) ([]model.Record, error) {
	rows, err := tx.Rows()
	if err != nil {
		return nil, queryErr(e, op, err)
	}
	recs, err := scanRows(e, rows)
	if err != nil {
		return nil, queryErr(e, op, err)
	}
	return recs, nil
}
