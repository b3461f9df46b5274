package model

import (
	"database/sql/driver"
	"strconv"
	"strings"
)

// Record is one row read from the reference store. Values are keyed by column
// name and normalized to nil, string, int64 or float64.
type Record struct {
	Entity *Entity
	Values map[string]any
}

// NewRecord builds a Record from values given in the entity's column order.
// Missing trailing values are treated as NULL.
func NewRecord(e *Entity, values ...any) Record {
	r := Record{Entity: e, Values: make(map[string]any, len(e.Columns))}
	for i, c := range e.Columns {
		if i < len(values) {
			r.Values[c.Name] = Normalize(values[i])
		} else {
			r.Values[c.Name] = nil
		}
	}
	return r
}

// IsNull reports whether the column is NULL or absent.
func (r Record) IsNull(col string) bool {
	return r.Values[col] == nil
}

// String returns the display text of a column; NULL is "".
func (r Record) String(col string) string {
	switch v := r.Values[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Int returns the column as an integer. ok is false for NULL or values that
// do not parse as an integer.
func (r Record) Int(col string) (int64, bool) {
	switch v := r.Values[col].(type) {
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Float returns the column as a float. ok is false for NULL or unparsable values.
func (r Record) Float(col string) (float64, bool) {
	switch v := r.Values[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// OptString returns nil for NULL, otherwise a pointer to the display text.
func (r Record) OptString(col string) *string {
	if r.IsNull(col) {
		return nil
	}
	s := r.String(col)
	return &s
}

// OptInt returns nil for NULL or non-integer values.
func (r Record) OptInt(col string) *int64 {
	n, ok := r.Int(col)
	if !ok {
		return nil
	}
	return &n
}

// OptFloat returns nil for NULL or non-numeric values.
func (r Record) OptFloat(col string) *float64 {
	f, ok := r.Float(col)
	if !ok {
		return nil
	}
	return &f
}

// KeyValues returns the primary key values of the record in key order.
func (r Record) KeyValues() []string {
	out := make([]string, len(r.Entity.Key))
	for i, k := range r.Entity.Key {
		out[i] = r.String(k)
	}
	return out
}

// Ordered returns the values in the entity's column order, converted to the
// column kind (nil stays nil). Used when writing records to another store.
func (r Record) Ordered() []any {
	out := make([]any, len(r.Entity.Columns))
	for i, c := range r.Entity.Columns {
		if r.IsNull(c.Name) {
			continue
		}
		switch c.Kind {
		case Integer:
			if n, ok := r.Int(c.Name); ok {
				out[i] = n
			}
		case Decimal:
			if f, ok := r.Float(c.Name); ok {
				out[i] = f
			}
		default:
			out[i] = r.String(c.Name)
		}
	}
	return out
}

// Normalize converts a driver value into nil, string, int64, float64 or bool.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, int64, float64, bool:
		return x
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return nil
		}
		return Normalize(dv)
	case interface{ String() string }:
		return x.String()
	default:
		return nil
	}
}
