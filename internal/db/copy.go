package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/drgref/internal/model"
)

// ChannelSource implements pgx.CopyFromSource by reading Records from a channel.
// The producer closes the channel when done.
type ChannelSource struct {
	ch      <-chan model.Record
	current model.Record
	err     error
	rows    int64
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource(ch <-chan model.Record) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource) Next() bool {
	rec, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = rec
	s.rows++
	return true
}

// Values returns the current record's values in column order.
func (s *ChannelSource) Values() ([]any, error) {
	return s.current.Ordered(), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource) Err() error {
	return s.err
}

// Rows returns how many records have been consumed.
func (s *ChannelSource) Rows() int64 {
	return s.rows
}

// Compile-time check that ChannelSource satisfies the interface.
var _ pgx.CopyFromSource = (*ChannelSource)(nil)
