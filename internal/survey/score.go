package survey

import "strings"

// Derived per-student column names.
const (
	ColKaashScore      = "KaashScore"
	ColBelongingRaw    = "BelongingRaw"
	ColBelongingCount  = "BelongingCount"
	ColBelongingScore  = "BelongingScore"
	DefaultKaashMarker = "kaash"
)

// StudentScores holds the per-row belonging fields.
type StudentScores struct {
	Raw   []float64
	Count []int
	Kaash []float64
	Score []float64
}

// CategoryAverage is the mean-of-column-means for one construct.
type CategoryAverage struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Averages keeps construct averages in construct order.
type Averages []CategoryAverage

// Get returns the average for the named construct.
func (a Averages) Get(name string) (float64, bool) {
	for _, ca := range a {
		if ca.Name == name {
			return ca.Value, true
		}
	}
	return 0, false
}

// Map returns the averages keyed by construct name.
func (a Averages) Map() map[string]float64 {
	m := make(map[string]float64, len(a))
	for _, ca := range a {
		m[ca.Name] = ca.Value
	}
	return m
}

// BelongingScoreFor is (raw - kaash) / count, or 0 when nothing was answered.
func BelongingScoreFor(raw, kaash float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return (raw - kaash) / float64(count)
}

// numericColumn coerces every cell of the named column.
func numericColumn(ds *Dataset, name string) []Cell {
	col, ok := ds.Column(name)
	if !ok {
		return make([]Cell, ds.Len())
	}
	return mapCells(col.Cells, Cell.Numeric)
}

// kaashScores is the row mean of the marker columns, skipping missing
// values. Rows with no numeric marker answer, and datasets without marker
// columns, score 0.
func kaashScores(ds *Dataset, marker string) []float64 {
	scores := make([]float64, ds.Len())
	var cols [][]Cell
	for _, c := range ds.Columns {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(marker)) {
			cols = append(cols, numericColumn(ds, c.Name))
		}
	}
	if len(cols) == 0 {
		return scores
	}
	for i := range scores {
		var sum float64
		var n int
		for _, col := range cols {
			if col[i].IsAbsent() {
				continue
			}
			sum += col[i].Num
			n++
		}
		if n > 0 {
			scores[i] = sum / float64(n)
		}
	}
	return scores
}

// ScoreStudents computes the belonging fields for every row.
func ScoreStudents(ds *Dataset, matches []ConstructMatch, marker string) StudentScores {
	n := ds.Len()
	s := StudentScores{
		Raw:   make([]float64, n),
		Count: make([]int, n),
		Score: make([]float64, n),
		Kaash: kaashScores(ds, marker),
	}
	cols := belongingColumns(matches)
	if len(cols) == 0 {
		return s
	}

	numeric := make(map[string][]Cell, len(cols))
	for _, name := range cols {
		if _, ok := numeric[name]; !ok {
			numeric[name] = numericColumn(ds, name)
		}
	}
	for i := 0; i < n; i++ {
		for _, name := range cols {
			c := numeric[name][i]
			if c.IsAbsent() {
				continue
			}
			s.Raw[i] += c.Num
			s.Count[i]++
		}
		s.Score[i] = BelongingScoreFor(s.Raw[i], s.Kaash[i], s.Count[i])
	}
	return s
}

// OverallScore is the plain mean of every row's belonging score, including
// rows that answered nothing and scored 0. It is nil when no column belongs
// to any construct or the dataset has no rows.
func OverallScore(s StudentScores, matches []ConstructMatch) *float64 {
	if len(belongingColumns(matches)) == 0 || len(s.Score) == 0 {
		return nil
	}
	var sum float64
	for _, v := range s.Score {
		sum += v
	}
	mean := sum / float64(len(s.Score))
	return &mean
}

// columnMean averages the numeric cells of a column.
func columnMean(cells []Cell) (float64, bool) {
	var sum float64
	var n int
	for _, c := range cells {
		if c.IsAbsent() {
			continue
		}
		sum += c.Num
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// CategoryAverages collapses each matched column to its mean and averages
// those means per construct. Columns with no numeric value are skipped; a
// construct with no usable column scores 0.
func CategoryAverages(ds *Dataset, matches []ConstructMatch) Averages {
	out := make(Averages, len(matches))
	for i, m := range matches {
		var sum float64
		var n int
		for _, name := range m.Columns {
			if mean, ok := columnMean(numericColumn(ds, name)); ok {
				sum += mean
				n++
			}
		}
		avg := 0.0
		if n > 0 {
			avg = sum / float64(n)
		}
		out[i] = CategoryAverage{Name: m.Construct, Value: avg}
	}
	return out
}

// HighestLowest returns the best construct and the weakest construct with
// data. Averages of exactly 0 mean "no data" and cannot be lowest. Ties go
// to the construct listed first. Both are nil when no construct has data.
func HighestLowest(avgs Averages) (highest, lowest *string) {
	var hi, lo *CategoryAverage
	for i := range avgs {
		a := &avgs[i]
		if hi == nil || a.Value > hi.Value {
			hi = a
		}
		if a.Value > 0 && (lo == nil || a.Value < lo.Value) {
			lo = a
		}
	}
	if lo == nil {
		return nil, nil
	}
	h, l := hi.Name, lo.Name
	return &h, &l
}
