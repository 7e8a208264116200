package survey

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Column is a named, ordered sequence of cells.
type Column struct {
	Name  string `json:"name"`
	Cells []Cell `json:"cells"`
}

// Dataset is an ordered set of row-aligned columns.
type Dataset struct {
	Columns []Column `json:"columns"`
}

// NewDataset builds a dataset from a header and row-major cells. Rows
// shorter than the header are padded with absent cells; longer rows are
// truncated. Duplicate header names get ".1", ".2" suffixes.
func NewDataset(header []string, rows [][]Cell) *Dataset {
	names := dedupeNames(header)
	ds := &Dataset{Columns: make([]Column, len(names))}
	for j, name := range names {
		cells := make([]Cell, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		ds.Columns[j] = Column{Name: name, Cells: cells}
	}
	return ds
}

// FromRecords builds a dataset from string records. Empty strings become
// absent cells; everything else is kept as text.
func FromRecords(header []string, records [][]string) *Dataset {
	rows := make([][]Cell, len(records))
	for i, rec := range records {
		row := make([]Cell, len(rec))
		for j, v := range rec {
			if v == "" {
				row[j] = Absent()
			} else {
				row[j] = Text(v)
			}
		}
		rows[i] = row
	}
	return NewDataset(header, rows)
}

func dedupeNames(header []string) []string {
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	out := make([]string, len(header))
	for i, h := range header {
		n, dup := seen[h]
		seen[h] = n + 1
		if !dup {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	i := d.Index(name)
	if i < 0 {
		return Column{}, false
	}
	return d.Columns[i], true
}

// FindColumn returns the first column whose lower-cased name contains any
// of the lower-cased keywords.
func (d *Dataset) FindColumn(keywords ...string) (string, bool) {
	for _, c := range d.Columns {
		if containsAny(strings.ToLower(c.Name), keywords) {
			return c.Name, true
		}
	}
	return "", false
}

// SetColumn replaces the named column or appends it at the end.
func (d *Dataset) SetColumn(name string, cells []Cell) {
	if i := d.Index(name); i >= 0 {
		d.Columns[i].Cells = cells
		return
	}
	d.Columns = append(d.Columns, Column{Name: name, Cells: cells})
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}

// Validate checks that all columns have the same length.
func (d *Dataset) Validate() error {
	if d == nil {
		return eris.New("survey: nil dataset")
	}
	n := d.Len()
	for _, c := range d.Columns {
		if len(c.Cells) != n {
			return eris.Errorf("survey: column %q has %d rows, want %d", c.Name, len(c.Cells), n)
		}
	}
	return nil
}

// Row returns row i keyed by column name.
func (d *Dataset) Row(i int) map[string]Cell {
	row := make(map[string]Cell, len(d.Columns))
	for _, c := range d.Columns {
		row[c.Name] = c.Cells[i]
	}
	return row
}

// Head returns a copy holding at most the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > d.Len() {
		n = d.Len()
	}
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, n)
		copy(cells, c.Cells[:n])
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}

// Records returns the header followed by stringified rows. Absent cells are
// written as empty strings.
func (d *Dataset) Records() [][]string {
	out := make([][]string, 0, d.Len()+1)
	out = append(out, d.Names())
	for i := 0; i < d.Len(); i++ {
		rec := make([]string, len(d.Columns))
		for j, c := range d.Columns {
			if !c.Cells[i].IsAbsent() {
				rec[j] = c.Cells[i].String()
			}
		}
		out = append(out, rec)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
