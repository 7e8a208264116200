package survey

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Derived column names.
const (
	ColEthnicityCleaned = "ethnicity_cleaned"
	ColIncomeCategory   = "Income Category"
)

// possessionsQuestion identifies the household possessions column.
const possessionsQuestion = "what items among these do you have at home"

// Results is the output of one pipeline run. It is built once and must be
// treated as read-only by its consumers; a new run replaces it entirely.
type Results struct {
	Cleaned             *Dataset         `json:"cleaned"`
	Classification      Classification   `json:"classification"`
	Constructs          []Construct      `json:"constructs"`
	Matched             []ConstructMatch `json:"matched"`
	Averages            Averages         `json:"averages"`
	Overall             *float64         `json:"overall"`
	Highest             *string          `json:"highest"`
	Lowest              *string          `json:"lowest"`
	DemographicKeywords []string         `json:"demographic_keywords"`
	Students            int              `json:"students"`
}

// MatchedColumns returns the columns claimed by the named construct.
func (r *Results) MatchedColumns(construct string) []string {
	for _, m := range r.Matched {
		if m.Construct == construct {
			return m.Columns
		}
	}
	return nil
}

// MatchedTable lays the construct matches out as a table: one column per
// construct, padded with empty strings.
func (r *Results) MatchedTable() [][]string {
	header := make([]string, len(r.Matched))
	depth := 0
	for i, m := range r.Matched {
		header[i] = m.Construct
		if len(m.Columns) > depth {
			depth = len(m.Columns)
		}
	}
	table := [][]string{header}
	for row := 0; row < depth; row++ {
		rec := make([]string, len(r.Matched))
		for i, m := range r.Matched {
			if row < len(m.Columns) {
				rec[i] = m.Columns[row]
			}
		}
		table = append(table, rec)
	}
	return table
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConstructs replaces the construct dictionary.
func WithConstructs(c []Construct) Option {
	return func(p *Pipeline) { p.constructs = c }
}

// WithDemographicKeywords replaces the demographic column keywords.
func WithDemographicKeywords(k []string) Option {
	return func(p *Pipeline) { p.demographicKeywords = k }
}

// WithKaashMarker replaces the marker that identifies aspiration questions.
func WithKaashMarker(m string) Option {
	return func(p *Pipeline) { p.kaashMarker = m }
}

// Pipeline runs classification, normalization, construct matching and
// score aggregation over one dataset. It holds configuration only and is
// safe for concurrent use.
type Pipeline struct {
	constructs          []Construct
	demographicKeywords []string
	kaashMarker         string
}

// NewPipeline returns a pipeline using the fixed dictionaries unless
// overridden.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		constructs:          DefaultConstructs,
		demographicKeywords: DefaultDemographicKeywords,
		kaashMarker:         DefaultKaashMarker,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes a copy of ds. The input is never modified. On error no
// results are returned.
func (p *Pipeline) Run(ds *Dataset) (res *Results, err error) {
	if err := ds.Validate(); err != nil {
		return nil, eris.Wrap(err, "survey: invalid dataset")
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = eris.Errorf("survey: pipeline failed: %v", r)
		}
	}()

	cleaned := ds.Clone()

	cls := Classify(cleaned, DefaultRules(p.demographicKeywords))
	normalize(cleaned, cls)
	derive(cleaned, cls)

	matches := MatchConstructs(cleaned.Names(), p.constructs)
	scores := ScoreStudents(cleaned, matches, p.kaashMarker)
	appendScores(cleaned, scores)

	avgs := CategoryAverages(cleaned, matches)
	highest, lowest := HighestLowest(avgs)

	res = &Results{
		Cleaned:             cleaned,
		Classification:      cls,
		Constructs:          p.constructs,
		Matched:             matches,
		Averages:            avgs,
		Overall:             OverallScore(scores, matches),
		Highest:             highest,
		Lowest:              lowest,
		DemographicKeywords: p.demographicKeywords,
		Students:            cleaned.Len(),
	}

	zap.L().Debug("survey: pipeline complete",
		zap.Int("rows", res.Students),
		zap.Int("columns", len(ds.Columns)),
		zap.Int("belonging_columns", len(belongingColumns(matches))),
	)
	return res, nil
}

// normalize rewrites column values in place according to their role.
func normalize(ds *Dataset, cls Classification) {
	for i, col := range ds.Columns {
		switch cls.RoleOf(col.Name) {
		case RoleDemographic:
			ds.Columns[i].Cells = mapCells(col.Cells, NormalizeDemographic)
		case RoleGrade:
			ds.Columns[i].Cells = mapCells(col.Cells, NormalizeGrade)
		case RoleLikert:
			ds.Columns[i].Cells = mapCells(col.Cells, NormalizeLikert)
		}
	}
}

// derive appends the cleaned ethnicity and income category columns.
func derive(ds *Dataset, cls Classification) {
	if cls.EthnicityColumn != "" {
		col, _ := ds.Column(cls.EthnicityColumn)
		ds.SetColumn(ColEthnicityCleaned, mapCells(col.Cells, CleanEthnicity))
	}
	if name, ok := possessionsColumn(ds); ok {
		col, _ := ds.Column(name)
		cells := make([]Cell, len(col.Cells))
		for i, c := range col.Cells {
			cells[i] = Text(CategorizeIncome(c))
		}
		ds.SetColumn(ColIncomeCategory, cells)
	}
}

func possessionsColumn(ds *Dataset) (string, bool) {
	for _, c := range ds.Columns {
		name := strings.ToLower(strings.ReplaceAll(c.Name, "_", " "))
		if strings.Contains(name, possessionsQuestion) {
			return c.Name, true
		}
	}
	return "", false
}

func appendScores(ds *Dataset, s StudentScores) {
	n := ds.Len()
	kaash := make([]Cell, n)
	raw := make([]Cell, n)
	count := make([]Cell, n)
	score := make([]Cell, n)
	for i := 0; i < n; i++ {
		kaash[i] = Number(s.Kaash[i])
		raw[i] = Number(s.Raw[i])
		count[i] = Number(float64(s.Count[i]))
		score[i] = Number(s.Score[i])
	}
	ds.SetColumn(ColKaashScore, kaash)
	ds.SetColumn(ColBelongingRaw, raw)
	ds.SetColumn(ColBelongingCount, count)
	ds.SetColumn(ColBelongingScore, score)
}
