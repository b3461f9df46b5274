// Package export writes pane contents to spreadsheets and raw entities to
// parquet files.
package export

import (
	"fmt"

	"github.com/tealeg/xlsx"

	"github.com/gyeh/drgref/internal/projection"
)

// Fill colours for severity tiers (ARGB).
const (
	highFill = "FFF4CCCC"
	lowFill  = "FFD9EAD3"
)

// Sheet names are capped by the xlsx format.
const maxSheetName = 31

// WriteTable saves the visible rows of p, with a header row, as a single
// sheet workbook at path. It returns the number of data rows written.
func WriteTable(path, sheetName string, p *projection.Projection) (int, error) {
	file := xlsx.NewFile()
	if r := []rune(sheetName); len(r) > maxSheetName {
		sheetName = string(r[:maxSheetName])
	}
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", sheetName, err)
	}

	header := sheet.AddRow()
	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true
	for _, col := range p.Columns() {
		cell := header.AddCell()
		cell.Value = col
		cell.SetStyle(bold)
	}

	high, low := fillStyle(highFill), fillStyle(lowFill)
	n := 0
	for row := range p.VisibleRows() {
		xr := sheet.AddRow()
		for _, c := range row {
			cell := xr.AddCell()
			cell.Value = c.Text
			switch c.Emphasis {
			case projection.EmphasisHigh:
				cell.SetStyle(high)
			case projection.EmphasisLow:
				cell.SetStyle(low)
			}
		}
		n++
	}

	if err := file.Save(path); err != nil {
		return n, fmt.Errorf("save %s: %w", path, err)
	}
	return n, nil
}

func fillStyle(argb string) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Fill = *xlsx.NewFill("solid", argb, argb)
	s.ApplyFill = true
	return s
}
