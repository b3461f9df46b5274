// Package display turns reference records into projection rows: the yes/no
// flag labels, the CCL severity tiers and the column headers of every pane.
package display

import (
	"strings"

	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/projection"
)

const (
	Yes = "是"
	No  = "否"
)

// IntFlag labels a flag stored as an integer: 1 is Yes, anything else is No.
func IntFlag(r model.Record, col string) string {
	if n, ok := r.Int(col); ok && n == 1 {
		return Yes
	}
	return No
}

// StringFlag labels a flag stored as text: "1" (after trimming) is Yes.
func StringFlag(r model.Record, col string) string {
	if strings.TrimSpace(r.String(col)) == "1" {
		return Yes
	}
	return No
}

// RuleFlag is Yes when a free-text rule is present.
func RuleFlag(r model.Record, col string) string {
	if strings.TrimSpace(r.String(col)) != "" {
		return Yes
	}
	return No
}

// Severity maps a CCL level to an emphasis tier.
func Severity(r model.Record, col string) projection.Emphasis {
	n, ok := r.Int(col)
	if !ok {
		return projection.EmphasisNone
	}
	switch n {
	case 2:
		return projection.EmphasisHigh
	case 1:
		return projection.EmphasisLow
	default:
		return projection.EmphasisNone
	}
}

func text(r model.Record, col string) projection.Cell {
	return projection.Cell{Text: r.String(col), Value: r.Values[col]}
}

func label(s string, v any) projection.Cell {
	return projection.Cell{Text: s, Value: v}
}

// Renderer builds one projection row from a record.
type Renderer func(model.Record) projection.Row

// View pairs the column headers of a pane with its row renderer.
type View struct {
	Columns []string
	Render  Renderer
}

// Rows renders every record with v.Render.
func (v View) Rows(recs []model.Record) []projection.Row {
	out := make([]projection.Row, len(recs))
	for i, r := range recs {
		out[i] = v.Render(r)
	}
	return out
}

// New returns an empty projection carrying the view's headers.
func (v View) New(name string) *projection.Projection {
	return projection.New(name, v.Columns...)
}

var (
	ADRG = View{
		Columns: []string{"ADRG代码", "ADRG名称", "内外科"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "AdrgCode"), text(r, "AdrgName"), text(r, "Dept")}
		},
	}

	DrgsGroup = View{
		Columns: []string{"DRG组", "名称", "判定主诊", "判定主手", "判定次诊", "特殊判定", "特殊规则", "权重"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{
				text(r, "grpcode"),
				text(r, "grpname"),
				label(IntFlag(r, "iszz"), r.Values["iszz"]),
				label(StringFlag(r, "isop"), r.Values["isop"]),
				label(IntFlag(r, "iscz"), r.Values["iscz"]),
				label(RuleFlag(r, "rule"), r.Values["rule"]),
				text(r, "rule"),
				text(r, "paycw"),
			}
		},
	}

	MdcDiag = View{
		Columns: []string{"MDC", "诊断编码", "诊断名称", "损伤部位"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "mdccode"), text(r, "diagcode"), text(r, "diagname"), text(r, "submdc")}
		},
	}

	MainDiagPool = View{
		Columns: []string{"ADRG", "诊断编码", "诊断名称", "组别序号"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "acode"), text(r, "diagcode"), text(r, "diagname"), text(r, "grpno")}
		},
	}

	MainOperPool = View{
		Columns: []string{"ADRG", "手术编码", "手术名称", "组别序号"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "acode"), text(r, "opercode"), text(r, "opername"), text(r, "grpno")}
		},
	}

	OtherDiagPool = MainDiagPool

	CC = View{
		Columns: []string{"诊断编码", "排除表", "并发症类型", "CCL级别"},
		Render: func(r model.Record) projection.Row {
			ccl := text(r, "ccl")
			ccl.Emphasis = Severity(r, "ccl")
			return projection.Row{text(r, "diagcode"), text(r, "tb"), text(r, "cctype"), ccl}
		},
	}

	Exclude = View{
		Columns: []string{"排除表", "主要诊断"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "tb"), text(r, "maindiag")}
		},
	}

	ExceptDiag = View{
		Columns: []string{"诊断编码", "诊断名称"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "diagcode"), text(r, "diagname")}
		},
	}

	ExceptOper = View{
		Columns: []string{"手术编码", "手术名称"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "opercode"), text(r, "opername")}
		},
	}

	// GroupDiag and GroupOper are the code/name/ADRG layout of the group
	// query screen.
	GroupDiag = View{
		Columns: []string{"诊断编码", "诊断名称", "ADRG"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "diagcode"), text(r, "diagname"), text(r, "acode")}
		},
	}

	GroupOper = View{
		Columns: []string{"手术编码", "手术名称", "ADRG"},
		Render: func(r model.Record) projection.Row {
			return projection.Row{text(r, "opercode"), text(r, "opername"), text(r, "acode")}
		},
	}
)
