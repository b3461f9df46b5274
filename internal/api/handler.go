// Package api serves the lookup screens as a read-only HTTP JSON API.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/pipeline"
	"github.com/gyeh/drgref/internal/projection"
	"github.com/gyeh/drgref/internal/screen"
	"github.com/gyeh/drgref/internal/store"
)

// Handler builds fresh screens per request over a shared store.
type Handler struct {
	env screen.Env
	log zerolog.Logger
}

func NewHandler(env screen.Env) *Handler {
	return &Handler{env: env, log: env.Logger}
}

// NewServer returns an echo instance with middleware, health, metrics and
// the v1 routes registered.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(h.log))
	e.Use(RequestID())
	e.Use(Logger(h.log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/adrg", h.ListADRG)
	g.GET("/adrg/:code", h.GetADRG)
	g.GET("/cc", h.SearchCC)
	g.GET("/cc/:code/exclude", h.GetExclude)
	g.GET("/except/:kind", h.GetExcept)
	g.GET("/group/:kind", h.GetGroup)
}

// CellJSON is one rendered cell.
type CellJSON struct {
	Text     string `json:"text"`
	Value    any    `json:"value"`
	Emphasis string `json:"emphasis,omitempty"`
}

// PaneJSON is the visible content of one pane.
type PaneJSON struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Columns     []string     `json:"columns"`
	Rows        [][]CellJSON `json:"rows"`
	Total       int          `json:"total"`
	Filter      string       `json:"filter,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	State       string       `json:"state,omitempty"`
}

// NoticeJSON is a user-facing message produced while serving the request.
type NoticeJSON struct {
	Kind   string `json:"kind"`
	Code   string `json:"code"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

// ScreenJSON is the response body of every lookup route.
type ScreenJSON struct {
	Screen  string       `json:"screen"`
	Title   string       `json:"title"`
	Panes   []PaneJSON   `json:"panes"`
	Notices []NoticeJSON `json:"notices,omitempty"`
}

// ErrorJSON is the body of a failed lookup.
type ErrorJSON struct {
	Error   string       `json:"error"`
	Notices []NoticeJSON `json:"notices,omitempty"`
}

// request carries the per-request screen environment and its notices.
type request struct {
	env screen.Env
	rec *notice.Recorder
}

func (h *Handler) newRequest(c echo.Context) *request {
	rec := &notice.Recorder{}
	env := h.env
	env.Notifier = rec
	rid, _ := c.Get("request_id").(string)
	env.Logger = h.log.With().Str("request_id", rid).Logger()
	return &request{env: env, rec: rec}
}

// ListADRG returns every ADRG, optionally filtered.
func (h *Handler) ListADRG(c echo.Context) error {
	r := h.newRequest(c)
	s, err := screen.NewADRG(r.env)
	if err != nil {
		return err
	}
	if err := s.Load(c.Request().Context()); err != nil {
		return r.fail(c, err)
	}
	if err := r.filter(c, s, screen.PaneADRG); err != nil {
		return r.fail(c, err)
	}
	return r.ok(c, s, screen.PaneADRG)
}

// GetADRG refreshes the five dependent panes for one ADRG code.
func (h *Handler) GetADRG(c echo.Context) error {
	r := h.newRequest(c)
	s, err := screen.NewADRG(r.env)
	if err != nil {
		return err
	}
	rep, err := s.SelectByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return r.fail(c, err)
	}
	deps := s.Pipeline().Dependents()
	if len(rep.Failures) == len(deps) {
		return r.fail(c, firstFailure(rep))
	}

	ids := make([]string, len(deps))
	for i, d := range deps {
		ids[i] = d.Name
		if p, _ := s.Pane(d.Name); p.Filter != screen.NoFilter {
			if err := r.filter(c, s, d.Name); err != nil {
				return r.fail(c, err)
			}
		}
	}
	return r.ok(c, s, ids...)
}

// SearchCC runs the complication search for ?code=.
func (h *Handler) SearchCC(c echo.Context) error {
	r := h.newRequest(c)
	s, err := screen.NewCC(r.env)
	if err != nil {
		return err
	}
	if err := s.Search(c.Request().Context(), c.QueryParam("code")); err != nil {
		return r.fail(c, err)
	}
	return r.ok(c, s, screen.PaneCC)
}

// GetExclude returns the exclusion list of one exact CC code.
func (h *Handler) GetExclude(c echo.Context) error {
	r := h.newRequest(c)
	s, err := screen.NewCC(r.env)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	code := c.Param("code")
	if err := s.Search(ctx, code); err != nil {
		return r.fail(c, err)
	}

	visible, ok := s.ExactRow(code)
	if !ok {
		return r.fail(c, screen.ErrNotFound)
	}
	task, err := s.OnSelectionChanged(screen.PaneCC, visible)
	if err != nil {
		return r.fail(c, err)
	}
	rep, err := task(ctx)
	if err != nil {
		return r.fail(c, err)
	}
	if len(rep.Failures) > 0 {
		return r.fail(c, firstFailure(rep))
	}
	if err := r.filter(c, s, screen.PaneExclude); err != nil {
		return r.fail(c, err)
	}
	return r.ok(c, s, screen.PaneExclude)
}

// GetExcept returns the should-not-code diagnosis or procedure list.
func (h *Handler) GetExcept(c echo.Context) error {
	return h.list(c, screen.NewExcept, map[string]string{
		"diag": screen.PaneExceptDiag,
		"oper": screen.PaneExceptOper,
	})
}

// GetGroup returns the main diagnosis or main procedure grouping list.
func (h *Handler) GetGroup(c echo.Context) error {
	return h.list(c, screen.NewGroup, map[string]string{
		"diag": screen.PaneGroupDiag,
		"oper": screen.PaneGroupOper,
	})
}

func (h *Handler) list(c echo.Context, build func(screen.Env) *screen.ListScreen, kinds map[string]string) error {
	r := h.newRequest(c)
	pane, ok := kinds[c.Param("kind")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown list "+c.Param("kind"))
	}
	s := build(r.env)
	if err := s.LoadPane(c.Request().Context(), pane); err != nil {
		return r.fail(c, err)
	}
	if err := r.filter(c, s, pane); err != nil {
		return r.fail(c, err)
	}
	return r.ok(c, s, pane)
}

func (r *request) filter(c echo.Context, s screen.Screen, pane string) error {
	f := c.QueryParam("filter")
	if f == "" {
		return nil
	}
	return s.OnTextChanged(c.Request().Context(), pane, f)
}

func (r *request) ok(c echo.Context, s screen.Screen, panes ...string) error {
	out := ScreenJSON{Screen: s.ID(), Title: s.Title(), Notices: r.notices()}
	var states map[string]pipeline.State
	if ps, ok := s.(interface{ Pipeline() *pipeline.Pipeline }); ok {
		states = make(map[string]pipeline.State)
		pl := ps.Pipeline()
		for i, st := range pl.States() {
			states[pl.Dependents()[i].Name] = st
		}
	}
	for _, id := range panes {
		p, ok := s.Pane(id)
		if !ok {
			continue
		}
		pj := paneJSON(p)
		if st, ok := states[id]; ok {
			pj.State = st.String()
		}
		out.Panes = append(out.Panes, pj)
	}
	return c.JSON(http.StatusOK, out)
}

// fail maps a lookup error to its HTTP status and writes the notices
// gathered so far.
func (r *request) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, screen.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, screen.ErrNotFound):
		status = http.StatusNotFound
	case store.IsQueryError(err):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		return err
	}
	r.env.Logger.Debug().Err(err).Int("status", status).Msg("lookup failed")
	return c.JSON(status, ErrorJSON{Error: err.Error(), Notices: r.notices()})
}

func (r *request) notices() []NoticeJSON {
	msgs := r.rec.Messages()
	if len(msgs) == 0 {
		return nil
	}
	out := make([]NoticeJSON, len(msgs))
	for i, m := range msgs {
		out[i] = NoticeJSON{Kind: m.Kind.String(), Code: string(m.Code), Source: m.Source, Text: m.Text}
	}
	return out
}

func paneJSON(p *screen.Pane) PaneJSON {
	pattern, _, _ := p.Projection.Filter()
	out := PaneJSON{
		ID:          p.ID,
		Title:       p.Title,
		Columns:     p.Projection.Columns(),
		Rows:        [][]CellJSON{},
		Total:       p.Projection.TotalRows(),
		Filter:      pattern,
		Placeholder: p.Projection.Placeholder(),
	}
	for row := range p.Projection.VisibleRows() {
		cells := make([]CellJSON, len(row))
		for i, c := range row {
			cells[i] = CellJSON{Text: c.Text, Value: c.Value, Emphasis: emphasis(c.Emphasis)}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func emphasis(e projection.Emphasis) string {
	switch e {
	case projection.EmphasisHigh:
		return "high"
	case projection.EmphasisLow:
		return "low"
	default:
		return ""
	}
}

func firstFailure(rep pipeline.Report) error {
	for _, err := range rep.Failures {
		return err
	}
	return nil
}
