package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/gyeh/drgref/internal/model"
)

// Memory is an in-process Store over fixed record sets. It is used by tests
// and by the parquet-backed fixture loader.
type Memory struct {
	mu   sync.RWMutex
	data map[*model.Entity][]model.Record
}

func NewMemory() *Memory {
	return &Memory{data: make(map[*model.Entity][]model.Record)}
}

// Add appends records to their entities' tables.
func (m *Memory) Add(recs ...model.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		m.data[r.Entity] = append(m.data[r.Entity], r)
	}
}

func (m *Memory) FindAll(_ context.Context, e *model.Entity) ([]model.Record, error) {
	return m.filter(e, func(model.Record) bool { return true }), nil
}

func (m *Memory) FindByKey(_ context.Context, e *model.Entity, key ...string) (model.Record, bool, error) {
	if err := checkKey(e, key); err != nil {
		return model.Record{}, false, err
	}
	recs := m.filter(e, func(r model.Record) bool {
		return slices.Equal(r.KeyValues(), key)
	})
	if len(recs) == 0 {
		return model.Record{}, false, nil
	}
	return recs[0], true, nil
}

func (m *Memory) FindWhere(_ context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	if err := checkField(e, OpFindWhere, field); err != nil {
		return nil, err
	}
	return m.filter(e, func(r model.Record) bool {
		return !r.IsNull(field) && r.String(field) == value
	}), nil
}

// FindWherePrefix folds ASCII case only, like SQLite's LIKE does.
func (m *Memory) FindWherePrefix(_ context.Context, e *model.Entity, field, prefix string) ([]model.Record, error) {
	if err := checkField(e, OpFindWherePrefix, field); err != nil {
		return nil, err
	}
	prefix = foldASCII(prefix)
	return m.filter(e, func(r model.Record) bool {
		return !r.IsNull(field) && strings.HasPrefix(foldASCII(r.String(field)), prefix)
	}), nil
}

// foldASCII lower-cases A-Z and leaves every other byte, including those of
// multi-byte runes, untouched.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func (m *Memory) Close() error { return nil }

func (m *Memory) filter(e *model.Entity, keep func(model.Record) bool) []model.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Record
	for _, r := range m.data[e] {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Record) int {
		return slices.Compare(a.KeyValues(), b.KeyValues())
	})
	return out
}
