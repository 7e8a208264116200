// Package ingest reads uploaded survey files (CSV, TXT, XLSX, XLS) into
// survey datasets.
package ingest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// ErrUnsupportedFormat is returned for file extensions that cannot be read.
var ErrUnsupportedFormat = eris.New("ingest: unsupported file format")

// ErrNoHeader is returned when a file has no header row.
var ErrNoHeader = eris.New("ingest: file has no header row")

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Supported reports whether Load can read filename.
func Supported(filename string) bool {
	switch Extension(filename) {
	case "csv", "txt", "xlsx", "xls":
		return true
	}
	return false
}

// Load parses data according to the extension of filename.
func Load(filename string, data []byte) (*survey.Dataset, error) {
	var (
		ds  *survey.Dataset
		err error
	)
	switch ext := Extension(filename); ext {
	case "csv", "txt":
		ds, err = ReadCSV(context.Background(), bytes.NewReader(data))
	case "xlsx":
		ds, err = ReadXLSX(data, XLSXOptions{})
	case "xls":
		ds, err = ReadXLS(data)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", filename)
	}

	zap.L().Debug("ingest: file loaded",
		zap.String("file", filename),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.Columns)),
	)
	return ds, nil
}

// MIMEType returns the download content type for filename.
func MIMEType(filename string) string {
	switch Extension(filename) {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "xls":
		return "application/vnd.ms-excel"
	case "txt":
		return "text/plain"
	}
	return "application/octet-stream"
}

var timestampKeywords = []string{"timestamp", "date", "time", "created", "submitted", "record", "entry", "logged"}

// TimestampColumns lists columns that look like form submission metadata.
// They are reported, not removed.
func TimestampColumns(ds *survey.Dataset) []string {
	var out []string
	for _, name := range ds.Names() {
		l := strings.ToLower(name)
		for _, k := range timestampKeywords {
			if strings.Contains(l, k) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// naValues are the spellings of a missing value in exported spreadsheets.
var naValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

// buildDataset turns a header and raw string rows into a dataset. A column
// whose every present value parses as a number becomes numeric; otherwise
// its values stay text.
func buildDataset(header []string, rows [][]string) (*survey.Dataset, error) {
	if len(header) == 0 {
		return nil, ErrNoHeader
	}
	numeric := make([]bool, len(header))
	for j := range header {
		numeric[j] = numericColumn(rows, j)
	}
	cells := make([][]survey.Cell, len(rows))
	for i, row := range rows {
		rec := make([]survey.Cell, len(header))
		for j := range header {
			if j >= len(row) {
				continue
			}
			rec[j] = toCell(row[j], numeric[j])
		}
		cells[i] = rec
	}
	return survey.NewDataset(header, cells), nil
}

func toCell(v string, numeric bool) survey.Cell {
	if naValues[strings.TrimSpace(v)] {
		return survey.Absent()
	}
	c := survey.Text(v)
	if numeric {
		return c.Numeric()
	}
	return c
}

func numericColumn(rows [][]string, j int) bool {
	seen := false
	for _, row := range rows {
		if j >= len(row) || naValues[strings.TrimSpace(row[j])] {
			continue
		}
		if _, ok := survey.Text(row[j]).Float(); !ok {
			return false
		}
		seen = true
	}
	return seen
}
