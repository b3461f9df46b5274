package model

import (
	"fmt"
	"reflect"
	"strings"
)

// Decode copies a record into a typed table struct. Fields are matched by the
// column name in their parquet tag; supported field types are string,
// *string, *int64 and *float64.
func Decode[T any](r Record) (T, error) {
	var out T
	v := reflect.ValueOf(&out).Elem()
	if v.Kind() != reflect.Struct {
		return out, fmt.Errorf("decode %s: %T is not a struct", r.Entity, out)
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		col := columnTag(t.Field(i))
		if col == "" {
			continue
		}
		f := v.Field(i)
		switch f.Interface().(type) {
		case string:
			f.SetString(r.String(col))
		case *string:
			f.Set(reflect.ValueOf(r.OptString(col)))
		case *int64:
			f.Set(reflect.ValueOf(r.OptInt(col)))
		case *float64:
			f.Set(reflect.ValueOf(r.OptFloat(col)))
		default:
			return out, fmt.Errorf("decode %s: unsupported field %s of type %s", r.Entity, t.Field(i).Name, f.Type())
		}
	}
	return out, nil
}

// Encode builds a record of entity e from a typed table struct.
func Encode[T any](e *Entity, row T) (Record, error) {
	rec := Record{Entity: e, Values: make(map[string]any, len(e.Columns))}
	for _, c := range e.Columns {
		rec.Values[c.Name] = nil
	}
	v := reflect.ValueOf(row)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return rec, fmt.Errorf("encode %s: %T is not a struct", e, row)
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		col := columnTag(t.Field(i))
		if col == "" {
			continue
		}
		if !e.HasColumn(col) {
			return rec, fmt.Errorf("encode %s: unknown column %q", e, col)
		}
		rec.Values[col] = Normalize(v.Field(i).Interface())
	}
	return rec, nil
}

func columnTag(f reflect.StructField) string {
	tag := f.Tag.Get("parquet")
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}
