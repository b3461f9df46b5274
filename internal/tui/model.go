// Package tui is the terminal browser over the lookup screens.
//
// The model is driven only from the bubbletea event loop. Store queries run
// inside tea.Cmd functions; their results come back as messages. Dependent
// panes are reset synchronously in Update before the refresh command starts.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/pipeline"
	"github.com/gyeh/drgref/internal/screen"
)

type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeFilter
)

// tab is the browsing state of one screen.
type tab struct {
	screen screen.Screen
	slots  []string // focus order: pane ids, plus the search box on the CC screen
	focus  int
	cursor map[string]int // visible row per pane, -1 for none
	loaded bool
	search string
	// searching is set while a CC search command is in flight.
	searching bool
}

func newTab(s screen.Screen) *tab {
	t := &tab{screen: s, cursor: make(map[string]int)}
	if _, ok := s.(*screen.CCScreen); ok {
		t.slots = append(t.slots, screen.SourceCCSearch)
	}
	for _, p := range s.Panes() {
		t.slots = append(t.slots, p.ID)
		t.cursor[p.ID] = -1
	}
	return t
}

func (t *tab) focused() string { return t.slots[t.focus] }

func (t *tab) focusedPane() (*screen.Pane, bool) {
	return t.screen.Pane(t.focused())
}

// Messages produced by commands.
type (
	loadedMsg struct {
		tab int
		err error
	}
	searchedMsg struct {
		tab int
		err error
	}
	refreshedMsg struct {
		tab    int
		pane   string
		report pipeline.Report
		err    error
	}
)

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	log     zerolog.Logger
	notices *notice.Recorder
	keys    keyMap

	tabs   []*tab
	active int

	input textinput.Model
	mode  inputMode

	status    notice.Message
	hasStatus bool

	width    int
	height   int
	quitting bool
}

// New builds a browser over screens. The screens must report to rec.
func New(ctx context.Context, screens []screen.Screen, rec *notice.Recorder, log zerolog.Logger) *Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := &Model{
		ctx:     ctx,
		log:     log.With().Str("session", uuid.NewString()).Logger(),
		notices: rec,
		keys:    defaultKeys(),
		input:   ti,
	}
	for _, s := range screens {
		m.tabs = append(m.tabs, newTab(s))
	}
	m.syncInput()
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.load(m.active)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case loadedMsg:
		m.tabs[msg.tab].loaded = true
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Str("screen", m.tabs[msg.tab].screen.ID()).Msg("load failed")
		}
		m.drainNotices()
		return m, nil

	case searchedMsg:
		t := m.tabs[msg.tab]
		t.searching = false
		t.cursor[screen.PaneCC] = -1
		t.cursor[screen.PaneExclude] = -1
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Msg("search")
		}
		m.drainNotices()
		return m, nil

	case refreshedMsg:
		if errors.Is(msg.err, pipeline.ErrSuperseded) {
			return m, nil
		}
		m.log.Debug().
			Uint64("seq", msg.report.Seq).
			Str("pane", msg.pane).
			Interface("rows", msg.report.Rows).
			Msg("refreshed")
		m.drainNotices()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return tea.Quit
	}
	if cmd, ok := m.switchTab(msg); ok {
		return cmd
	}
	if key.Matches(msg, m.keys.Focus) {
		m.cycleFocus()
		return nil
	}
	if m.mode != modeNone {
		return m.handleInput(msg)
	}

	t := m.tabs[m.active]
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(t, -1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(t, 1)
	case key.Matches(msg, m.keys.Filter):
		if p, ok := t.focusedPane(); ok && p.Filter != screen.NoFilter {
			pattern, _, _ := p.Projection.Filter()
			m.mode = modeFilter
			m.input.Prompt = "过滤: "
			m.input.SetValue(pattern)
			m.input.CursorEnd()
			m.input.Focus()
		}
	case key.Matches(msg, m.keys.Clear):
		return m.clear(t)
	}
	return nil
}

// handleInput routes keys to the search box or a filter box.
func (m *Model) handleInput(msg tea.KeyMsg) tea.Cmd {
	t := m.tabs[m.active]
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.mode == modeSearch {
			return m.search(t)
		}
		m.leaveFilter()
		return nil
	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		if m.mode == modeFilter {
			m.applyFilter(t, "")
			m.leaveFilter()
		}
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter && m.input.Value() != before {
		m.applyFilter(t, m.input.Value())
	}
	if m.mode == modeSearch {
		t.search = m.input.Value()
	}
	return cmd
}

// applyFilter keeps the selected row selected while it stays visible. When the
// filter hides it the selection is cleared, and so are the dependents.
func (m *Model) applyFilter(t *tab, text string) {
	id := t.focused()
	p, ok := t.screen.Pane(id)
	selected := -1
	if ok && p.Selectable && t.cursor[id] >= 0 {
		if src, found := p.Projection.SourceIndex(t.cursor[id]); found {
			selected = src
		}
	}

	if err := t.screen.OnTextChanged(m.ctx, id, text); err != nil {
		m.log.Debug().Err(err).Str("pane", id).Msg("filter")
	}

	if ok && p.Selectable && t.cursor[id] >= 0 {
		if vis, found := p.Projection.VisibleIndex(selected); selected >= 0 && found {
			t.cursor[id] = vis
		} else {
			t.cursor[id] = -1
			m.selectRow(t, id, -1)
		}
	}
	m.drainNotices()
}

func (m *Model) leaveFilter() {
	m.mode = modeNone
	m.input.Blur()
	m.syncInput()
}

func (m *Model) switchTab(msg tea.KeyMsg) (tea.Cmd, bool) {
	next := -1
	for i, b := range m.keys.Tabs {
		if key.Matches(msg, b) && i < len(m.tabs) {
			next = i
		}
	}
	switch {
	case key.Matches(msg, m.keys.NextTab):
		next = (m.active + 1) % len(m.tabs)
	case key.Matches(msg, m.keys.PrevTab):
		next = (m.active + len(m.tabs) - 1) % len(m.tabs)
	}
	if next < 0 {
		return nil, false
	}
	if m.mode == modeFilter {
		m.leaveFilter()
	}
	m.active = next
	m.syncInput()
	return m.load(next), true
}

func (m *Model) cycleFocus() {
	if m.mode == modeFilter {
		m.leaveFilter()
	}
	t := m.tabs[m.active]
	t.focus = (t.focus + 1) % len(t.slots)
	m.syncInput()
}

// syncInput puts the text box in search mode when the search box has focus.
func (m *Model) syncInput() {
	if len(m.tabs) == 0 {
		return
	}
	t := m.tabs[m.active]
	if t.focused() == screen.SourceCCSearch {
		m.mode = modeSearch
		m.input.Prompt = "编码: "
		m.input.SetValue(t.search)
		m.input.CursorEnd()
		m.input.Focus()
		return
	}
	if m.mode == modeSearch {
		m.mode = modeNone
		m.input.Blur()
	}
}

func (m *Model) moveCursor(t *tab, delta int) tea.Cmd {
	p, ok := t.focusedPane()
	if !ok {
		return nil
	}
	n := p.Projection.VisibleCount()
	if n == 0 {
		return nil
	}
	cur := t.cursor[p.ID] + delta
	if cur < 0 {
		cur = 0
	}
	if cur >= n {
		cur = n - 1
	}
	if cur == t.cursor[p.ID] {
		return nil
	}
	if t.searching && p.ID == screen.PaneCC {
		return nil
	}
	t.cursor[p.ID] = cur
	if !p.Selectable {
		return nil
	}
	return m.selectRow(t, p.ID, cur)
}

func (m *Model) clear(t *tab) tea.Cmd {
	p, ok := t.focusedPane()
	if !ok {
		return nil
	}
	t.cursor[p.ID] = -1
	if p.Selectable {
		return m.selectRow(t, p.ID, -1)
	}
	if p.Filter != screen.NoFilter {
		m.applyFilter(t, "")
	}
	return nil
}

// selectRow resets the dependents now and returns the command that
// repopulates them.
func (m *Model) selectRow(t *tab, pane string, visible int) tea.Cmd {
	task, err := t.screen.OnSelectionChanged(pane, visible)
	m.drainNotices()
	if err != nil {
		m.log.Debug().Err(err).Str("pane", pane).Int("row", visible).Msg("selection")
		return nil
	}
	if task == nil {
		return nil
	}
	idx, ctx := m.active, m.ctx
	return func() tea.Msg {
		rep, err := task(ctx)
		return refreshedMsg{tab: idx, pane: pane, report: rep, err: err}
	}
}

func (m *Model) search(t *tab) tea.Cmd {
	text := m.input.Value()
	t.searching = true
	idx, ctx := m.active, m.ctx
	return func() tea.Msg {
		return searchedMsg{tab: idx, err: t.screen.OnTextChanged(ctx, screen.SourceCCSearch, text)}
	}
}

func (m *Model) load(i int) tea.Cmd {
	t := m.tabs[i]
	if t.loaded {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{tab: i, err: t.screen.Load(ctx)}
	}
}

func (m *Model) drainNotices() {
	for _, msg := range m.notices.Drain() {
		m.log.Info().Str("kind", msg.Kind.String()).Str("code", string(msg.Code)).Str("source", msg.Source).Msg(msg.Text)
		m.status, m.hasStatus = msg, true
	}
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, screens []screen.Screen, rec *notice.Recorder, log zerolog.Logger) error {
	p := tea.NewProgram(New(ctx, screens, rec, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
