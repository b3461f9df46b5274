package display

import (
	"slices"
	"testing"

	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/projection"
)

func TestIntFlag(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{int64(1), Yes},
		{"1", Yes},
		{int64(0), No},
		{nil, No},
		{int64(2), No},
		{"x", No},
	}
	for _, tt := range tests {
		r := model.NewRecord(model.DrgsGroup, "AB11", "n", tt.in)
		if got := IntFlag(r, "iszz"); got != tt.want {
			t.Errorf("IntFlag(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStringFlag(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"1", Yes},
		{" 1 ", Yes},
		{"0", No},
		{"", No},
		{nil, No},
		{"Y", No},
	}
	for _, tt := range tests {
		r := model.NewRecord(model.DrgsGroup, "AB11", "n", nil, nil, tt.in)
		if got := StringFlag(r, "isop"); got != tt.want {
			t.Errorf("StringFlag(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRuleFlag(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"仅限xx", Yes},
		{"", No},
		{"   ", No},
		{nil, No},
	}
	for _, tt := range tests {
		r := model.NewRecord(model.DrgsGroup, "AB11", "n", nil, nil, nil, tt.in)
		if got := RuleFlag(r, "rule"); got != tt.want {
			t.Errorf("RuleFlag(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		in   any
		want projection.Emphasis
	}{
		{int64(2), projection.EmphasisHigh},
		{int64(1), projection.EmphasisLow},
		{int64(3), projection.EmphasisNone},
		{int64(0), projection.EmphasisNone},
		{nil, projection.EmphasisNone},
		{"2", projection.EmphasisHigh},
	}
	for _, tt := range tests {
		r := model.NewRecord(model.CC, "A01.000", "T1", "CC", tt.in)
		if got := Severity(r, "ccl"); got != tt.want {
			t.Errorf("Severity(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDrgsGroupRow(t *testing.T) {
	r := model.NewRecord(model.DrgsGroup, "AB11", "腹腔镜手术", int64(1), int64(0), "1", "仅限xx", 1.52, "AB1")
	row := DrgsGroup.Render(r)
	want := []string{"AB11", "腹腔镜手术", Yes, Yes, No, Yes, "仅限xx", "1.52"}
	if got := row.Texts(); !slices.Equal(got, want) {
		t.Fatalf("row = %v, want %v", got, want)
	}
	if len(DrgsGroup.Columns) != len(want) {
		t.Errorf("header width %d != row width %d", len(DrgsGroup.Columns), len(want))
	}
}

func TestCCRowEmphasis(t *testing.T) {
	rows := CC.Rows([]model.Record{
		model.NewRecord(model.CC, "A01.000", "T1", "CC", int64(2)),
		model.NewRecord(model.CC, "A02.000", "T2", "CC", int64(1)),
		model.NewRecord(model.CC, "A03.000", "T3", "MCC", nil),
	})
	want := []projection.Emphasis{projection.EmphasisHigh, projection.EmphasisLow, projection.EmphasisNone}
	for i, r := range rows {
		if r[3].Emphasis != want[i] {
			t.Errorf("row %d emphasis = %v, want %v", i, r[3].Emphasis, want[i])
		}
		if r[0].Emphasis != projection.EmphasisNone {
			t.Errorf("row %d code cell should not be emphasized", i)
		}
	}
}

func TestViewsMatchHeaderWidth(t *testing.T) {
	views := map[string]struct {
		v View
		e *model.Entity
	}{
		"adrg":       {ADRG, model.ADRG},
		"mdc":        {MdcDiag, model.MdcDiagPool},
		"maindiag":   {MainDiagPool, model.MainDiagIndex},
		"mainoper":   {MainOperPool, model.MainSurgeryIndex},
		"otherdiag":  {OtherDiagPool, model.OtherDiagIndex},
		"cc":         {CC, model.CC},
		"exclude":    {Exclude, model.Exclude},
		"exceptdiag": {ExceptDiag, model.ExceptDiag},
		"exceptoper": {ExceptOper, model.ExceptOper},
		"groupdiag":  {GroupDiag, model.MainDiagIndex},
		"groupoper":  {GroupOper, model.MainSurgeryIndex},
	}
	for name, tc := range views {
		row := tc.v.Render(model.NewRecord(tc.e))
		if len(row) != len(tc.v.Columns) {
			t.Errorf("%s: row width %d, header width %d", name, len(row), len(tc.v.Columns))
		}
	}
}
