package screen

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gyeh/drgref/internal/display"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/pipeline"
)

// CCScreen searches complication codes by diagnosis code and shows the
// exclusion list of the selected code.
type CCScreen struct {
	base
	cc        *Pane
	exclude   *pipeline.Dependent
	recs      records
	pipe      *pipeline.Pipeline
	minLength int
}

// Sources of the CC screen.
const (
	SourceCCSearch = "cc.search"
	PaneCC         = "cc"
	PaneExclude    = "exclude"
)

// Empty-state texts of the CC screen.
const (
	TextNoData   = "无数据"
	TextNoMatch  = "未找到匹配记录"
	TextNotFound = "未找到相关记录"
)

func NewCC(env Env) (*CCScreen, error) {
	s := &CCScreen{base: newBase("cc", "并发症查询", env), minLength: env.MinSearchLength}
	if s.minLength <= 0 {
		s.minLength = DefaultMinSearchLength
	}
	s.cc = &Pane{
		ID: PaneCC, Title: "并发症", Projection: display.CC.New(PaneCC),
		Selectable: true,
	}
	s.exclude = pipeline.NewDependent(pipeline.ExcludeTable, display.Exclude)
	s.add(s.cc)
	s.add(&Pane{
		ID: PaneExclude, Title: "排除表", Projection: s.exclude.Projection,
		Filter: RegexpFilter, FilterScope: 1,
	})

	p, err := pipeline.New("cc", env.Store, []*pipeline.Dependent{s.exclude}, env.pipelineOptions())
	if err != nil {
		return nil, fmt.Errorf("cc pipeline: %w", err)
	}
	s.pipe = p
	return s, nil
}

// Load starts the screen empty; the CC pane is filled by Search.
func (s *CCScreen) Load(context.Context) error {
	s.recs.set(nil)
	s.cc.Projection.Reset("")
	s.pipe.Clear()
	return nil
}

// Search looks up CC rows by exact diagnosis code, falling back to a prefix
// match when the exact match finds nothing. Codes shorter than the minimum
// length are rejected without touching the store.
func (s *CCScreen) Search(ctx context.Context, input string) error {
	code := strings.TrimSpace(input)
	if utf8.RuneCountInString(code) < s.minLength {
		s.notify.Notify(notice.Message{
			Kind: notice.Warning, Code: notice.InvalidInput, Source: SourceCCSearch,
			Text: fmt.Sprintf("请输入不小于%s位数的并发症编码!", chineseCount(s.minLength)),
		})
		return fmt.Errorf("%w: code %q shorter than %d characters", ErrInvalidInput, code, s.minLength)
	}

	// A new search invalidates the current selection.
	s.pipe.Clear()

	recs, err := s.env.Store.FindWhere(ctx, model.CC, "diagcode", code)
	if err == nil && len(recs) == 0 {
		s.log.Debug().Str("code", code).Msg("no exact match, trying prefix")
		recs, err = s.env.Store.FindWherePrefix(ctx, model.CC, "diagcode", code)
	}
	if err != nil {
		s.queryFailed(s.cc, "", err)
		s.install(nil)
		return err
	}

	if len(recs) == 0 {
		s.cc.Projection.Reset(TextNoData)
		s.install(nil)
		s.exclude.Projection.Reset(TextNoMatch)
		s.notify.Notify(notice.Message{
			Kind: notice.Info, Code: notice.NotFound, Source: SourceCCSearch, Text: TextNotFound,
		})
		return fmt.Errorf("%w: CC %q", ErrNotFound, code)
	}

	s.cc.Projection.ReplaceRows(display.CC.Rows(recs))
	s.install(recs)
	s.log.Debug().Str("code", code).Int("rows", len(recs)).Msg("cc search")
	return nil
}

// install swaps the records behind the CC pane and clears the pipeline again,
// superseding any selection resolved against the previous rows while the
// search was in flight. The pane rows must already be replaced.
func (s *CCScreen) install(recs []model.Record) {
	s.recs.set(recs)
	s.pipe.Clear()
}

func (s *CCScreen) OnTextChanged(ctx context.Context, source, text string) error {
	if source == SourceCCSearch {
		return s.Search(ctx, text)
	}
	return s.applyFilter(source, text)
}

func (s *CCScreen) OnSelectionChanged(source string, visible int) (Task, error) {
	if source != PaneCC {
		return nil, fmt.Errorf("%w %q on screen %s", ErrUnknownSource, source, s.id)
	}
	return selectVisible(s.cc, &s.recs, s.pipe, visible)
}

// ExactRow returns the visible CC row whose diagnosis code equals code,
// ignoring surrounding space and case.
func (s *CCScreen) ExactRow(code string) (int, bool) {
	code = strings.TrimSpace(code)
	for i, row := range s.cc.Projection.Visible() {
		if strings.EqualFold(row[0].Text, code) {
			return i, true
		}
	}
	return 0, false
}

// Pipeline exposes the exclude refresh state.
func (s *CCScreen) Pipeline() *pipeline.Pipeline { return s.pipe }

// MinLength returns the shortest accepted search code.
func (s *CCScreen) MinLength() int { return s.minLength }

func chineseCount(n int) string {
	digits := []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}
	if n >= 0 && n < len(digits) {
		return digits[n]
	}
	return fmt.Sprint(n)
}
