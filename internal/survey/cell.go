// Package survey normalizes uploaded student survey tables and aggregates
// them into belonging construct scores.
package survey

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind tags the variant held by a Cell.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindText
)

// Cell is a single table value: absent, numeric, or text.
type Cell struct {
	Kind Kind
	Num  float64
	Text string
}

// Absent returns a missing cell.
func Absent() Cell { return Cell{} }

// Number returns a numeric cell. NaN is stored as absent.
func Number(f float64) Cell {
	if math.IsNaN(f) {
		return Cell{}
	}
	return Cell{Kind: KindNumber, Num: f}
}

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// IsAbsent reports whether the cell holds no value.
func (c Cell) IsAbsent() bool { return c.Kind == KindAbsent }

// String renders the cell the way it is stringified before text cleanup.
// Absent cells render as "nan" so cleanup rules can recognise them.
func (c Cell) String() string {
	switch c.Kind {
	case KindNumber:
		return formatNumber(c.Num)
	case KindText:
		return c.Text
	default:
		return "nan"
	}
}

// Float coerces the cell to a number. Text that does not parse, and absent
// cells, report ok=false.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Numeric returns the numeric coercion of c as a cell (absent on failure).
func (c Cell) Numeric() Cell {
	f, ok := c.Float()
	if !ok {
		return Absent()
	}
	return Number(f)
}

// MarshalJSON encodes absent as null, numbers as JSON numbers and text as
// JSON strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindNumber:
		if math.IsInf(c.Num, 0) {
			return json.Marshal(formatNumber(c.Num))
		}
		return []byte(formatNumber(c.Num)), nil
	case KindText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cell) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return eris.Wrap(err, "survey: decode cell")
	}
	switch t := v.(type) {
	case nil:
		*c = Absent()
	case float64:
		*c = Number(t)
	case string:
		*c = Text(t)
	default:
		return eris.Errorf("survey: unexpected cell value %s", string(b))
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
