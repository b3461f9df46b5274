// Package projection holds ordered table rows plus a filtered view over them.
//
// A Projection never reorders or mutates its source rows when filtering; the
// visible set is a pure function of (rows, pattern, scope, mode).
package projection

import (
	"iter"
	"regexp"
	"strings"
	"sync"
)

// Emphasis is the visual tier of a cell.
type Emphasis int

const (
	EmphasisNone Emphasis = iota
	EmphasisLow
	EmphasisHigh
)

// Cell is one typed table cell. Text is what filters match against.
type Cell struct {
	Text     string
	Value    any
	Emphasis Emphasis
}

// Row is an immutable ordered sequence of cells.
type Row []Cell

// Texts returns the display text of every cell.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

// TextRow builds a row of plain text cells.
func TextRow(texts ...string) Row {
	r := make(Row, len(texts))
	for i, t := range texts {
		r[i] = Cell{Text: t, Value: t}
	}
	return r
}

// AllColumns scopes a filter to every column.
const AllColumns = -1

// Mode selects how the filter pattern is interpreted.
type Mode int

const (
	// Substring matches a case-insensitive literal substring.
	Substring Mode = iota
	// Regexp matches a case-insensitive regular expression.
	Regexp
)

type matcher func(text string) bool

// Projection is safe for concurrent use; dependent refreshes write from a
// query goroutine while a display surface reads.
type Projection struct {
	name    string
	columns []string

	mu          sync.RWMutex
	rows        []Row
	placeholder string
	pattern     string
	scope       int
	mode        Mode
	match       matcher
}

// New creates an empty projection with the given column headers.
func New(name string, columns ...string) *Projection {
	return &Projection{
		name:    name,
		columns: columns,
		scope:   AllColumns,
		match:   matchAll,
	}
}

func (p *Projection) Name() string { return p.name }

// Columns returns the header labels.
func (p *Projection) Columns() []string {
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}

// ReplaceRows discards all current rows and installs rows. The filter is kept.
func (p *Projection) ReplaceRows(rows []Row) {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	p.mu.Lock()
	p.rows = cp
	p.placeholder = ""
	p.mu.Unlock()
}

// Reset empties the projection and sets a human-readable placeholder to show
// instead of rows ("" for none). The filter is kept.
func (p *Projection) Reset(placeholder string) {
	p.mu.Lock()
	p.rows = nil
	p.placeholder = placeholder
	p.mu.Unlock()
}

// Placeholder returns the empty-state text, if any.
func (p *Projection) Placeholder() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.placeholder
}

// SetFilter installs a case-insensitive substring filter on one column or
// AllColumns. An empty pattern matches every row.
func (p *Projection) SetFilter(pattern string, scope int) {
	m := substringMatcher(pattern)
	p.mu.Lock()
	p.pattern, p.scope, p.mode, p.match = pattern, scope, Substring, m
	p.mu.Unlock()
}

// SetRegexpFilter installs a case-insensitive regular expression filter. An
// invalid pattern is installed anyway and matches no row; the compile error is
// returned so the caller can surface it.
func (p *Projection) SetRegexpFilter(pattern string, scope int) error {
	m, err := regexpMatcher(pattern)
	p.mu.Lock()
	p.pattern, p.scope, p.mode, p.match = pattern, scope, Regexp, m
	p.mu.Unlock()
	return err
}

// Filter returns the current pattern, scope and mode.
func (p *Projection) Filter() (pattern string, scope int, mode Mode) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pattern, p.scope, p.mode
}

// VisibleRows yields the rows passing the filter in insertion order. The
// sequence snapshots the projection state each time it is ranged over.
func (p *Projection) VisibleRows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		rows, scope, match := p.snapshot()
		for _, r := range rows {
			if !matchRow(r, scope, match) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Visible collects VisibleRows into a slice.
func (p *Projection) Visible() []Row {
	var out []Row
	for r := range p.VisibleRows() {
		out = append(out, r)
	}
	return out
}

// SourceIndex maps the i-th visible row to its index in the source rows.
func (p *Projection) SourceIndex(visible int) (int, bool) {
	idx := p.visibleIndexes()
	if visible < 0 || visible >= len(idx) {
		return 0, false
	}
	return idx[visible], true
}

// VisibleIndex maps source row i to its position among the visible rows.
// ok is false when the row is filtered out or out of range.
func (p *Projection) VisibleIndex(i int) (int, bool) {
	for v, src := range p.visibleIndexes() {
		if src == i {
			return v, true
		}
	}
	return 0, false
}

// Row returns the source row at index i.
func (p *Projection) Row(i int) (Row, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i < 0 || i >= len(p.rows) {
		return nil, false
	}
	return p.rows[i], true
}

// TotalRows returns the number of source rows.
func (p *Projection) TotalRows() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rows)
}

// VisibleCount returns the number of rows passing the filter.
func (p *Projection) VisibleCount() int {
	return len(p.visibleIndexes())
}

func (p *Projection) visibleIndexes() []int {
	rows, scope, match := p.snapshot()
	out := make([]int, 0, len(rows))
	for i, r := range rows {
		if matchRow(r, scope, match) {
			out = append(out, i)
		}
	}
	return out
}

// snapshot returns the current rows and predicate. ReplaceRows swaps the
// slice rather than mutating it, so the returned rows stay valid.
func (p *Projection) snapshot() ([]Row, int, matcher) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rows, p.scope, p.match
}

func matchRow(r Row, scope int, match matcher) bool {
	if scope == AllColumns {
		for _, c := range r {
			if match(c.Text) {
				return true
			}
		}
		// A row with no cells only passes the empty filter.
		return len(r) == 0 && match("")
	}
	if scope < 0 || scope >= len(r) {
		return match("")
	}
	return match(r[scope].Text)
}

func matchAll(string) bool  { return true }
func matchNone(string) bool { return false }

func substringMatcher(pattern string) matcher {
	if pattern == "" {
		return matchAll
	}
	needle := strings.ToLower(pattern)
	return func(text string) bool {
		return strings.Contains(strings.ToLower(text), needle)
	}
}

func regexpMatcher(pattern string) (matcher, error) {
	if pattern == "" {
		return matchAll, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return matchNone, err
	}
	return re.MatchString, nil
}
