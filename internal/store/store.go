// Package store is the read-only query surface over the reference tables.
//
// Every backend answers the same four lookups. Zero rows is a normal result,
// never an error; failures are returned as *QueryError.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gyeh/drgref/internal/model"
)

// Store is the Record Store consumed by the lookup screens.
type Store interface {
	// FindAll returns every row of e ordered by primary key.
	FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error)
	// FindByKey returns the row whose primary key equals key, if any.
	FindByKey(ctx context.Context, e *model.Entity, key ...string) (model.Record, bool, error)
	// FindWhere returns the rows whose field equals value.
	FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error)
	// FindWherePrefix returns the rows whose field starts with prefix.
	FindWherePrefix(ctx context.Context, e *model.Entity, field, prefix string) ([]model.Record, error)
	Close() error
}

// Op names a store operation in errors, logs and metrics.
type Op string

const (
	OpFindAll         Op = "find_all"
	OpFindByKey       Op = "find_by_key"
	OpFindWhere       Op = "find_where"
	OpFindWherePrefix Op = "find_where_prefix"
)

// QueryError is a store-level failure for one entity and operation.
type QueryError struct {
	Entity string
	Op     Op
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ErrUnknownField is wrapped in a QueryError when a lookup names a column the
// entity does not have.
var ErrUnknownField = errors.New("unknown field")

// ErrKeyArity is wrapped in a QueryError when FindByKey gets the wrong number
// of key values.
var ErrKeyArity = errors.New("key arity mismatch")

func queryErr(e *model.Entity, op Op, err error) error {
	return &QueryError{Entity: e.Name, Op: op, Err: err}
}

// IsQueryError reports whether err is, or wraps, a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

func checkField(e *model.Entity, op Op, field string) error {
	if !e.HasColumn(field) {
		return queryErr(e, op, fmt.Errorf("%w %q", ErrUnknownField, field))
	}
	return nil
}

func checkKey(e *model.Entity, key []string) error {
	if len(key) != len(e.Key) {
		return queryErr(e, OpFindByKey, fmt.Errorf("%w: got %d values for %d key columns", ErrKeyArity, len(key), len(e.Key)))
	}
	return nil
}

// escapeLike escapes the LIKE metacharacters of s with a backslash.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// condition is one WHERE term of a generated query.
type condition struct {
	field string
	like  bool
}

// selectSQL renders a SELECT over e with quoted identifiers. placeholder
// returns the bind marker for the n-th (1-based) parameter.
func selectSQL(e *model.Entity, placeholder func(n int) string, conds ...condition) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, c := range e.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c.Name))
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(e.Table))
	for i, c := range conds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(quoteIdent(c.field))
		if c.like {
			b.WriteString(" LIKE ")
			b.WriteString(placeholder(i + 1))
			b.WriteString(` ESCAPE '\'`)
		} else {
			b.WriteString(" = ")
			b.WriteString(placeholder(i + 1))
		}
	}
	b.WriteString(" ORDER BY ")
	for i, k := range e.Key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(k))
	}
	return b.String()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func keyConditions(e *model.Entity) []condition {
	conds := make([]condition, len(e.Key))
	for i, k := range e.Key {
		conds[i] = condition{field: k}
	}
	return conds
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
