package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/screen"
	"github.com/gyeh/drgref/internal/store"
)

func fixture() *store.Memory {
	m := store.NewMemory()
	m.Add(
		model.NewRecord(model.ADRG, "AB1", "肝移植", "", "外科"),
		model.NewRecord(model.ADRG, "HS2", "病毒性肝炎", "", "内科"),
		model.NewRecord(model.DrgsGroup, "AB11", "肝移植", int64(1), int64(0), "1", "", 30.5, "AB1"),
		model.NewRecord(model.MdcDiagPool, "MDCA", "Z94.400", "肝移植状态", ""),
		model.NewRecord(model.MainDiagIndex, "AB1", "Z94.400", "肝移植状态", int64(1)),
		model.NewRecord(model.MainSurgeryIndex, "AB1", "50.5900", "肝移植", int64(1)),
		model.NewRecord(model.CC, "A01.000", "T1", "CC", int64(1)),
		model.NewRecord(model.CC, "A01.100", "T1", "MCC", int64(2)),
		model.NewRecord(model.Exclude, "T1", "A01.000"),
		model.NewRecord(model.Exclude, "T1", "B20.000"),
		model.NewRecord(model.ExceptDiag, "Z00.000", "一般检查"),
		model.NewRecord(model.ExceptDiag, "Z01.000", "眼和视力检查"),
	)
	return m
}

// brokenStore fails every query.
type brokenStore struct{ store.Store }

func (brokenStore) FindAll(_ context.Context, e *model.Entity) ([]model.Record, error) {
	return nil, &store.QueryError{Entity: e.Name, Op: store.OpFindAll, Err: errors.New("database is locked")}
}

func (brokenStore) FindWhere(_ context.Context, e *model.Entity, _, _ string) ([]model.Record, error) {
	return nil, &store.QueryError{Entity: e.Name, Op: store.OpFindWhere, Err: errors.New("database is locked")}
}

func newServer(s store.Store) *echo.Echo {
	return NewServer(NewHandler(screen.Env{Store: s, Logger: zerolog.Nop(), Concurrency: 2}))
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	rec := get(t, newServer(fixture()), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(headerRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestMetrics(t *testing.T) {
	rec := get(t, newServer(fixture()), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListADRG_Filter(t *testing.T) {
	rec := get(t, newServer(fixture()), "/api/v1/adrg?filter=%E5%86%85%E7%A7%91") // 内科
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode[ScreenJSON](t, rec)
	if len(body.Panes) != 1 {
		t.Fatalf("panes = %d", len(body.Panes))
	}
	p := body.Panes[0]
	if p.Total != 2 || len(p.Rows) != 1 || p.Rows[0][0].Text != "HS2" {
		t.Errorf("pane = %+v", p)
	}
}

func TestGetADRG(t *testing.T) {
	e := newServer(fixture())
	rec := get(t, e, "/api/v1/adrg/AB1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode[ScreenJSON](t, rec)
	if len(body.Panes) != 5 {
		t.Fatalf("panes = %d, want 5", len(body.Panes))
	}
	byID := map[string]PaneJSON{}
	for _, p := range body.Panes {
		byID[p.ID] = p
	}
	if len(byID[screen.PaneDRG].Rows) != 1 || byID[screen.PaneDRG].State != "populated" {
		t.Errorf("drg pane = %+v", byID[screen.PaneDRG])
	}
	if len(byID[screen.PaneMDC].Rows) != 1 {
		t.Errorf("mdc pane = %+v", byID[screen.PaneMDC])
	}

	if rec := get(t, e, "/api/v1/adrg/ZZ9"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown code status = %d", rec.Code)
	}
}

func TestSearchCC(t *testing.T) {
	e := newServer(fixture())

	rec := get(t, e, "/api/v1/cc?code=A01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode[ScreenJSON](t, rec)
	rows := body.Panes[0].Rows
	if len(rows) != 2 || rows[1][3].Emphasis != "high" || rows[0][3].Emphasis != "low" {
		t.Errorf("rows = %+v", rows)
	}

	rec = get(t, e, "/api/v1/cc?code=A0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short code status = %d", rec.Code)
	}
	eb := decode[ErrorJSON](t, rec)
	if len(eb.Notices) != 1 || eb.Notices[0].Code != "invalid_input" {
		t.Errorf("notices = %+v", eb.Notices)
	}

	rec = get(t, e, "/api/v1/cc?code=999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown code status = %d", rec.Code)
	}
}

func TestGetExclude(t *testing.T) {
	e := newServer(fixture())
	rec := get(t, e, "/api/v1/cc/A01.100/exclude?filter=%5Eb")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode[ScreenJSON](t, rec)
	p := body.Panes[0]
	if p.Total != 2 || len(p.Rows) != 1 || p.Rows[0][1].Text != "B20.000" {
		t.Errorf("exclude pane = %+v", p)
	}

	if rec := get(t, e, "/api/v1/cc/A01.100/exclude?filter=("); rec.Code != http.StatusBadRequest {
		t.Errorf("bad regexp status = %d", rec.Code)
	}

	// Lower-case input selects the same row as the printed lookup would.
	rec = get(t, e, "/api/v1/cc/a01.100/exclude")
	if rec.Code != http.StatusOK {
		t.Fatalf("lower-case status = %d, body %s", rec.Code, rec.Body.String())
	}
	if p := decode[ScreenJSON](t, rec).Panes[0]; p.Total != 2 {
		t.Errorf("lower-case exclude pane = %+v", p)
	}
}

func TestLists(t *testing.T) {
	e := newServer(fixture())
	rec := get(t, e, "/api/v1/except/diag?filter=z01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[ScreenJSON](t, rec)
	if len(body.Panes[0].Rows) != 1 {
		t.Errorf("rows = %+v", body.Panes[0].Rows)
	}

	rec = get(t, e, "/api/v1/group/oper")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[ScreenJSON](t, rec); body.Panes[0].Rows[0][2].Text != "AB1" {
		t.Errorf("group oper = %+v", body.Panes[0])
	}

	if rec := get(t, e, "/api/v1/except/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d", rec.Code)
	}
}

func TestQueryFailed(t *testing.T) {
	e := newServer(brokenStore{Store: fixture()})
	rec := get(t, e, "/api/v1/adrg")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[ErrorJSON](t, rec)
	if len(body.Notices) != 1 || body.Notices[0].Code != "query_failed" {
		t.Errorf("notices = %+v", body.Notices)
	}

	if rec := get(t, e, "/api/v1/cc?code=A01"); rec.Code != http.StatusBadGateway {
		t.Errorf("cc status = %d", rec.Code)
	}
}
