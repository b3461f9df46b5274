package screen

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/pipeline"
	"github.com/gyeh/drgref/internal/store"
)

// countingStore records how many queries reached the backend.
type countingStore struct {
	store.Store
	calls  atomic.Int32
	failOn *model.Entity
}

func (c *countingStore) FindAll(ctx context.Context, e *model.Entity) ([]model.Record, error) {
	c.calls.Add(1)
	if e == c.failOn {
		return nil, &store.QueryError{Entity: e.Name, Op: store.OpFindAll, Err: errors.New("disk I/O error")}
	}
	return c.Store.FindAll(ctx, e)
}

func (c *countingStore) FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	c.calls.Add(1)
	return c.Store.FindWhere(ctx, e, field, value)
}

func (c *countingStore) FindWherePrefix(ctx context.Context, e *model.Entity, field, prefix string) ([]model.Record, error) {
	c.calls.Add(1)
	return c.Store.FindWherePrefix(ctx, e, field, prefix)
}

// gatedStore blocks CC lookups for one code until gate is closed.
type gatedStore struct {
	store.Store
	code    string
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) FindWhere(ctx context.Context, e *model.Entity, field, value string) ([]model.Record, error) {
	if e == model.CC && value == g.code {
		close(g.entered)
		<-g.gate
	}
	return g.Store.FindWhere(ctx, e, field, value)
}

func fixture() *store.Memory {
	m := store.NewMemory()
	m.Add(
		model.NewRecord(model.ADRG, "AB1", "肝移植", "", "外科"),
		model.NewRecord(model.ADRG, "HS2", "病毒性肝炎", "", "内科"),
		model.NewRecord(model.DrgsGroup, "AB11", "肝移植", int64(1), int64(0), "1", "", 30.5, "AB1"),
		model.NewRecord(model.MdcDiagPool, "MDCA", "Z94.400", "肝移植状态", ""),
		model.NewRecord(model.MainDiagIndex, "AB1", "Z94.400", "肝移植状态", int64(1)),
		model.NewRecord(model.MainDiagIndex, "HS2", "B15.900", "甲型肝炎", int64(1)),
		model.NewRecord(model.MainSurgeryIndex, "AB1", "50.5900", "肝移植", int64(1)),

		model.NewRecord(model.CC, "A01.000", "T1", "CC", int64(1)),
		model.NewRecord(model.CC, "A01.100", "T1", "CC", int64(2)),
		model.NewRecord(model.CC, "A01", "T2", "MCC", int64(2)),
		model.NewRecord(model.Exclude, "T1", "A01.000"),
		model.NewRecord(model.Exclude, "T1", "B20.000"),
		model.NewRecord(model.Exclude, "T2", "A01.100"),

		model.NewRecord(model.ExceptDiag, "Z00.000", "一般检查"),
		model.NewRecord(model.ExceptDiag, "Z01.000", "眼和视力检查"),
		model.NewRecord(model.ExceptOper, "89.0100", "问诊"),
	)
	return m
}

func newEnv(s store.Store, n notice.Notifier) Env {
	return Env{Store: s, Notifier: n, Logger: zerolog.Nop(), Concurrency: 2}
}

func TestCCSearch_InvalidInput(t *testing.T) {
	cs := &countingStore{Store: fixture()}
	rec := &notice.Recorder{}
	s, err := NewCC(newEnv(cs, rec))
	if err != nil {
		t.Fatal(err)
	}

	for _, in := range []string{"", "A0", "  A0  ", "甲乙"} {
		if err := s.Search(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Search(%q) = %v, want ErrInvalidInput", in, err)
		}
	}
	if cs.calls.Load() != 0 {
		t.Errorf("invalid input reached the store %d times", cs.calls.Load())
	}
	msgs := rec.Messages()
	if len(msgs) != 4 || msgs[0].Text != "请输入不小于三位数的并发症编码!" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestCCSearch_ExactMatchSkipsPrefix(t *testing.T) {
	cs := &countingStore{Store: fixture()}
	s, err := NewCC(newEnv(cs, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Search(context.Background(), " A01 "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := cs.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	pane, _ := s.Pane(PaneCC)
	if pane.Projection.TotalRows() != 1 {
		t.Errorf("cc rows = %d, want 1", pane.Projection.TotalRows())
	}
}

func TestCCSearch_PrefixFallback(t *testing.T) {
	cs := &countingStore{Store: fixture()}
	s, err := NewCC(newEnv(cs, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Search(context.Background(), "A01."); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := cs.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
	pane, _ := s.Pane(PaneCC)
	if pane.Projection.TotalRows() != 2 {
		t.Errorf("cc rows = %d, want 2", pane.Projection.TotalRows())
	}
}

func TestCCSearch_NotFound(t *testing.T) {
	rec := &notice.Recorder{}
	s, err := NewCC(newEnv(fixture(), rec))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Search(context.Background(), "123")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	cc, _ := s.Pane(PaneCC)
	ex, _ := s.Pane(PaneExclude)
	if cc.Projection.TotalRows() != 0 || cc.Projection.Placeholder() != TextNoData {
		t.Errorf("cc pane = %d rows, %q", cc.Projection.TotalRows(), cc.Projection.Placeholder())
	}
	if ex.Projection.TotalRows() != 0 || ex.Projection.Placeholder() != TextNoMatch {
		t.Errorf("exclude pane = %d rows, %q", ex.Projection.TotalRows(), ex.Projection.Placeholder())
	}
	if rec.Count(notice.NotFound) != 1 {
		t.Errorf("messages = %v", rec.Messages())
	}
}

func TestCCSelection(t *testing.T) {
	s, err := NewCC(newEnv(fixture(), nil))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Search(ctx, "A01."); err != nil {
		t.Fatal(err)
	}

	// Visible row 1 is A01.100 (table T1).
	task, err := s.OnSelectionChanged(PaneCC, 1)
	if err != nil || task == nil {
		t.Fatalf("OnSelectionChanged: task nil=%t, err %v", task == nil, err)
	}
	if _, err := task(ctx); err != nil {
		t.Fatalf("task: %v", err)
	}
	ex, _ := s.Pane(PaneExclude)
	if ex.Projection.TotalRows() != 2 {
		t.Fatalf("exclude rows = %d, want 2", ex.Projection.TotalRows())
	}

	// The exclude filter is a case-insensitive regexp on the main diagnosis.
	if err := s.OnTextChanged(ctx, PaneExclude, "^b2"); err != nil {
		t.Fatal(err)
	}
	if ex.Projection.VisibleCount() != 1 {
		t.Errorf("filtered exclude rows = %d, want 1", ex.Projection.VisibleCount())
	}
	if err := s.OnTextChanged(ctx, PaneExclude, "("); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad regexp err = %v", err)
	}

	task, err = s.OnSelectionChanged(PaneCC, -1)
	if err != nil || task != nil {
		t.Fatalf("clear: task nil=%t, err %v", task == nil, err)
	}
	if ex.Projection.TotalRows() != 0 || ex.Projection.Placeholder() != "请选择左侧行" {
		t.Errorf("exclude after clear = %d rows, %q", ex.Projection.TotalRows(), ex.Projection.Placeholder())
	}
}

func TestCCSearch_DropsSelectionOfPreviousRows(t *testing.T) {
	gs := &gatedStore{Store: fixture(), code: "A01", entered: make(chan struct{}), gate: make(chan struct{})}
	s, err := NewCC(newEnv(gs, nil))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Search(ctx, "A01.000"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Search(ctx, "A01") }()
	<-gs.entered

	// Select A01.000 (table T1) while the new search is still querying.
	task, err := s.OnSelectionChanged(PaneCC, 0)
	if err != nil || task == nil {
		t.Fatalf("OnSelectionChanged: task nil=%t, err %v", task == nil, err)
	}
	if _, err := task(ctx); err != nil {
		t.Fatalf("task: %v", err)
	}

	close(gs.gate)
	if err := <-done; err != nil {
		t.Fatalf("Search: %v", err)
	}

	cc, _ := s.Pane(PaneCC)
	ex, _ := s.Pane(PaneExclude)
	if got := cc.Projection.Visible(); len(got) != 1 || got[0][1].Text != "T2" {
		t.Fatalf("cc rows = %v, want the single T2 row", got)
	}
	if ex.Projection.TotalRows() != 0 || ex.Projection.Placeholder() != "请选择左侧行" {
		t.Errorf("exclude pane = %v, %q; want cleared", ex.Projection.Visible(), ex.Projection.Placeholder())
	}
	for i, st := range s.Pipeline().States() {
		if st != pipeline.Idle {
			t.Errorf("state[%d] = %v, want idle", i, st)
		}
	}
}

func TestADRGScreen(t *testing.T) {
	s, err := NewADRG(newEnv(fixture(), nil))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	// Filtering the ADRG pane changes which record a visible index maps to.
	if err := s.OnTextChanged(ctx, PaneADRG, "内科"); err != nil {
		t.Fatal(err)
	}
	task, err := s.OnSelectionChanged(PaneADRG, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := task(ctx); err != nil {
		t.Fatal(err)
	}
	md, _ := s.Pane(PaneMainDiag)
	row, ok := md.Projection.Row(0)
	if !ok || row[0].Text != "HS2" {
		t.Errorf("maindiag first row = %v", row)
	}

	if _, err := s.OnSelectionChanged(PaneADRG, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("out of range selection err = %v", err)
	}
	if err := s.OnTextChanged(ctx, PaneDRG, "x"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("drg pane should have no filter, err = %v", err)
	}
}

func TestADRGSelectByCode(t *testing.T) {
	s, err := NewADRG(newEnv(fixture(), nil))
	if err != nil {
		t.Fatal(err)
	}
	rep, err := s.SelectByCode(context.Background(), "AB1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Rows[PaneDRG] != 1 || rep.Rows[PaneMDC] != 1 || rep.Rows[PaneMainOper] != 1 {
		t.Errorf("rows = %v", rep.Rows)
	}
	if _, err := s.SelectByCode(context.Background(), "ZZ9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown code err = %v", err)
	}
}

func TestExceptLoad_IndependentFailure(t *testing.T) {
	rec := &notice.Recorder{}
	cs := &countingStore{Store: fixture(), failOn: model.ExceptOper}
	s := NewExcept(newEnv(cs, rec))

	err := s.Load(context.Background())
	if err == nil || !store.IsQueryError(err) {
		t.Fatalf("Load err = %v, want a query error", err)
	}
	diag, _ := s.Pane(PaneExceptDiag)
	oper, _ := s.Pane(PaneExceptOper)
	if diag.Projection.TotalRows() != 2 {
		t.Errorf("exceptdiag rows = %d, want 2", diag.Projection.TotalRows())
	}
	if oper.Projection.TotalRows() != 0 {
		t.Errorf("exceptoper rows = %d, want 0", oper.Projection.TotalRows())
	}
	if rec.Count(notice.QueryFailed) != 1 {
		t.Errorf("messages = %v", rec.Messages())
	}
}

func TestGroupFilterAndClear(t *testing.T) {
	s := NewGroup(newEnv(fixture(), nil))
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Pane(PaneGroupDiag)
	if err := s.OnTextChanged(ctx, PaneGroupDiag, "hs2"); err != nil {
		t.Fatal(err)
	}
	if p.Projection.VisibleCount() != 1 {
		t.Errorf("visible = %d, want 1", p.Projection.VisibleCount())
	}
	if err := s.ClearFilter(PaneGroupDiag); err != nil {
		t.Fatal(err)
	}
	if p.Projection.VisibleCount() != 2 {
		t.Errorf("visible after clear = %d, want 2", p.Projection.VisibleCount())
	}
}

func TestCCExactRow(t *testing.T) {
	s, err := NewCC(newEnv(fixture(), nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Search(context.Background(), "A01."); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		code string
		want int
		ok   bool
	}{
		{"A01.100", 1, true},
		{" a01.100 ", 1, true},
		{"A01.000", 0, true},
		{"A01.", 0, false},
	}
	for _, tt := range tests {
		got, ok := s.ExactRow(tt.code)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExactRow(%q) = %d,%v want %d,%v", tt.code, got, ok, tt.want, tt.ok)
		}
	}
}
