package screen

import (
	"context"
	"fmt"

	"github.com/gyeh/drgref/internal/display"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/pipeline"
	"github.com/gyeh/drgref/internal/projection"
)

// ADRGScreen lists every ADRG and shows its DRG groups and code pools.
type ADRGScreen struct {
	base
	adrg *Pane
	recs records
	pipe *pipeline.Pipeline
}

// Pane ids of the ADRG screen.
const (
	PaneADRG      = "adrg"
	PaneDRG       = "drg"
	PaneMDC       = "mdc"
	PaneMainDiag  = "maindiag"
	PaneMainOper  = "mainoper"
	PaneOtherDiag = "otherdiag"
)

func NewADRG(env Env) (*ADRGScreen, error) {
	s := &ADRGScreen{base: newBase("adrg", "ADRG查询", env)}
	s.adrg = &Pane{
		ID: PaneADRG, Title: "ADRG", Projection: display.ADRG.New(PaneADRG),
		Filter: SubstringFilter, FilterScope: projection.AllColumns, Selectable: true,
	}
	s.add(s.adrg)

	deps := []*pipeline.Dependent{
		pipeline.NewDependent(pipeline.DRGGroups, display.DrgsGroup),
		pipeline.NewDependent(pipeline.MDCDiagPool, display.MdcDiag),
		pipeline.NewDependent(pipeline.MainDiagPool, display.MainDiagPool),
		pipeline.NewDependent(pipeline.MainOperPool, display.MainOperPool),
		pipeline.NewDependent(pipeline.OtherDiagPool, display.OtherDiagPool),
	}
	titles := map[string]string{
		PaneDRG:       "DRG组",
		PaneMDC:       "MDC诊断池",
		PaneMainDiag:  "主诊断池",
		PaneMainOper:  "主手术池",
		PaneOtherDiag: "其他诊断池",
	}
	for _, d := range deps {
		filter := SubstringFilter
		if d.Name == PaneDRG {
			filter = NoFilter
		}
		s.add(&Pane{
			ID: d.Name, Title: titles[d.Name], Projection: d.Projection,
			Filter: filter, FilterScope: projection.AllColumns,
		})
	}

	p, err := pipeline.New("adrg", env.Store, deps, env.pipelineOptions())
	if err != nil {
		return nil, fmt.Errorf("adrg pipeline: %w", err)
	}
	s.pipe = p
	return s, nil
}

// Load fills the ADRG pane and clears every dependent pane.
func (s *ADRGScreen) Load(ctx context.Context) error {
	s.pipe.Clear()
	recs, err := s.env.Store.FindAll(ctx, model.ADRG)
	if err != nil {
		s.recs.set(nil)
		s.queryFailed(s.adrg, "", err)
		return err
	}
	s.recs.set(recs)
	s.adrg.Projection.ReplaceRows(display.ADRG.Rows(recs))
	s.log.Debug().Int("rows", len(recs)).Msg("adrg loaded")
	return nil
}

func (s *ADRGScreen) OnTextChanged(_ context.Context, source, text string) error {
	return s.applyFilter(source, text)
}

func (s *ADRGScreen) OnSelectionChanged(source string, visible int) (Task, error) {
	if source != PaneADRG {
		return nil, fmt.Errorf("%w %q on screen %s", ErrUnknownSource, source, s.id)
	}
	return selectVisible(s.adrg, &s.recs, s.pipe, visible)
}

// SelectByCode looks up one ADRG and refreshes the dependents for it,
// independent of what the ADRG pane currently shows.
func (s *ADRGScreen) SelectByCode(ctx context.Context, code string) (pipeline.Report, error) {
	rec, ok, err := s.env.Store.FindByKey(ctx, model.ADRG, code)
	if err != nil {
		s.pipe.Clear()
		s.queryFailed(s.adrg, "", err)
		return pipeline.Report{}, err
	}
	if !ok {
		s.pipe.Clear()
		return pipeline.Report{}, fmt.Errorf("%w: ADRG %q", ErrNotFound, code)
	}
	return s.pipe.Refresh(ctx, rec)
}

// Pipeline exposes the dependent refresh state.
func (s *ADRGScreen) Pipeline() *pipeline.Pipeline { return s.pipe }
