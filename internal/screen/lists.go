package screen

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gyeh/drgref/internal/display"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/projection"
)

// listPane is a read-only pane filled with every record of one entity.
type listPane struct {
	pane   *Pane
	entity *model.Entity
	view   display.View
}

// ListScreen shows static reference lists side by side, each with its own
// all-column filter. No pane is selectable.
type ListScreen struct {
	base
	lists []listPane
}

// Pane ids of the list screens.
const (
	PaneExceptDiag = "exceptdiag"
	PaneExceptOper = "exceptoper"
	PaneGroupDiag  = "groupdiag"
	PaneGroupOper  = "groupoper"
)

func newList(id, title string, env Env) *ListScreen {
	return &ListScreen{base: newBase(id, title, env)}
}

func (s *ListScreen) addList(id, title string, e *model.Entity, view display.View) {
	p := &Pane{
		ID: id, Title: title, Projection: view.New(id),
		Filter: SubstringFilter, FilterScope: projection.AllColumns,
	}
	s.add(p)
	s.lists = append(s.lists, listPane{pane: p, entity: e, view: view})
}

// NewExcept builds the should-not-code diagnosis and procedure lists.
func NewExcept(env Env) *ListScreen {
	s := newList("except", "不应编码诊断与手术", env)
	s.addList(PaneExceptDiag, "不应编码诊断", model.ExceptDiag, display.ExceptDiag)
	s.addList(PaneExceptOper, "不应编码手术", model.ExceptOper, display.ExceptOper)
	return s
}

// NewGroup builds the main diagnosis and main procedure grouping lists.
func NewGroup(env Env) *ListScreen {
	s := newList("group", "入组查询", env)
	s.addList(PaneGroupDiag, "主诊断入组", model.MainDiagIndex, display.GroupDiag)
	s.addList(PaneGroupOper, "主手术入组", model.MainSurgeryIndex, display.GroupOper)
	return s
}

// Load fills every list independently; a failed list is reported and left
// empty while the others still load. The returned error joins all failures.
func (s *ListScreen) Load(ctx context.Context) error {
	errs := make([]error, len(s.lists))
	var g errgroup.Group
	if s.env.Concurrency > 0 {
		g.SetLimit(s.env.Concurrency)
	}
	for i, l := range s.lists {
		g.Go(func() error {
			_, errs[i] = s.loadAll(ctx, l.pane, l.entity, l.view)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// LoadPane fills one list only.
func (s *ListScreen) LoadPane(ctx context.Context, id string) error {
	for _, l := range s.lists {
		if l.pane.ID == id {
			_, err := s.loadAll(ctx, l.pane, l.entity, l.view)
			return err
		}
	}
	return fmt.Errorf("%w %q on screen %s", ErrUnknownSource, id, s.id)
}

func (s *ListScreen) OnTextChanged(_ context.Context, source, text string) error {
	return s.applyFilter(source, text)
}

// ClearFilter empties the filter of one pane.
func (s *ListScreen) ClearFilter(source string) error {
	return s.applyFilter(source, "")
}

func (s *ListScreen) OnSelectionChanged(source string, _ int) (Task, error) {
	if _, ok := s.Pane(source); !ok {
		return nil, fmt.Errorf("%w %q on screen %s", ErrUnknownSource, source, s.id)
	}
	return nil, nil
}
