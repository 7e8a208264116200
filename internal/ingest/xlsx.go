package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads one sheet of an XLSX workbook. The first non-empty row is
// the header. Numeric cells stay numeric.
func ReadXLSX(data []byte, opts XLSXOptions) (*survey.Dataset, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var header []string
	var rows [][]survey.Cell
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		if header == nil {
			header = rowToStrings(row)
			if blankRecord(header) {
				header = nil
			}
			continue
		}
		cells := rowToCells(row)
		if allAbsent(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	if len(header) == 0 {
		return nil, ErrNoHeader
	}
	return survey.NewDataset(header, rows), nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = strings.TrimSpace(cell.String())
	}
	return cells
}

func rowToCells(row *xlsx.Row) []survey.Cell {
	cells := make([]survey.Cell, len(row.Cells))
	for j, cell := range row.Cells {
		if cell.Type() == xlsx.CellTypeNumeric {
			if f, err := cell.Float(); err == nil {
				cells[j] = survey.Number(f)
				continue
			}
		}
		cells[j] = toCell(cell.String(), false)
	}
	return cells
}

func allAbsent(cells []survey.Cell) bool {
	for _, c := range cells {
		if !c.IsAbsent() {
			return false
		}
	}
	return true
}
