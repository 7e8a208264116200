package ingest

import (
	"bytes"
	"strings"

	"github.com/extrame/xls"
	"github.com/rotisserie/eris"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// ReadXLS reads the first sheet of a legacy BIFF workbook. Cell values
// come back as text, so column types are inferred the same way as CSV.
func ReadXLS(data []byte) (*survey.Dataset, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, eris.Wrap(err, "xls: open workbook")
	}
	if wb.NumSheets() == 0 {
		return nil, eris.New("xls: workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, eris.New("xls: first sheet unreadable")
	}

	var header []string
	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		rec := make([]string, row.LastCol())
		for j := range rec {
			rec[j] = row.Col(j)
		}
		if blankRecord(rec) {
			continue
		}
		if header == nil {
			for j := range rec {
				rec[j] = strings.TrimSpace(rec[j])
			}
			header = rec
			continue
		}
		rows = append(rows, rec)
	}
	return buildDataset(header, rows)
}
