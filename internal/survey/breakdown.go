package survey

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// GroupColumn names a demographic grouping and the keywords that find its
// column.
type GroupColumn struct {
	Label    string
	Keywords []string
}

// Group labels.
const (
	GroupGender    = "Gender"
	GroupGrade     = "Grade"
	GroupIncome    = "Income Status"
	GroupHealth    = "Health Condition"
	GroupEthnicity = "Ethnicity"
	GroupReligion  = "Religion"
)

// GroupColumns lists the dashboard groupings in display order.
var GroupColumns = []GroupColumn{
	{Label: GroupGender, Keywords: []string{"gender", "What gender do you use"}},
	{Label: GroupGrade, Keywords: []string{"grade", "Which grade are you in"}},
	{Label: GroupIncome, Keywords: []string{ColIncomeCategory}},
	{Label: GroupHealth, Keywords: []string{"disability", "health condition"}},
	{Label: GroupEthnicity, Keywords: []string{ColEthnicityCleaned}},
	{Label: GroupReligion, Keywords: []string{"religion"}},
}

// LookupGroup returns the grouping with the given label.
func LookupGroup(label string) (GroupColumn, bool) {
	for _, g := range GroupColumns {
		if strings.EqualFold(g.Label, label) {
			return g, true
		}
	}
	return GroupColumn{}, false
}

// GroupColumnFor resolves a grouping to a column of ds. A match on a raw
// ethnicity column is redirected to its cleaned form when present.
func GroupColumnFor(ds *Dataset, g GroupColumn) (string, bool) {
	name, ok := ds.FindColumn(g.Keywords...)
	if !ok {
		return "", false
	}
	if strings.Contains(strings.ToLower(name), "ethnicity") && ds.Index(ColEthnicityCleaned) >= 0 {
		return ColEthnicityCleaned, true
	}
	return name, true
}

// Count is one bar of a value distribution.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Distribution counts the values of a column. Absent cells count as
// "Unknown". The result is sorted by count, largest first, then by label.
func Distribution(ds *Dataset, column string) []Count {
	col, ok := ds.Column(column)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for _, c := range col.Cells {
		label := unknown
		if !c.IsAbsent() {
			label = c.String()
		}
		counts[label]++
	}
	out := make([]Count, 0, len(counts))
	for l, n := range counts {
		out = append(out, Count{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// GroupAverage is the mean target score of one group.
type GroupAverage struct {
	Group string  `json:"group"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// GroupAverages averages targetCol per value of groupCol. Rows missing
// either value are dropped. With numericSort, groups are ordered by their
// numeric value and non-numeric groups are dropped; otherwise groups are
// ordered by label.
func GroupAverages(ds *Dataset, groupCol, targetCol string, numericSort bool) []GroupAverage {
	pairs, ok := groupPairs(ds, groupCol, targetCol)
	if !ok {
		return nil
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range pairs {
		sums[p.group] += p.value
		counts[p.group]++
	}

	type keyed struct {
		GroupAverage
		key float64
	}
	var rows []keyed
	for g, n := range counts {
		ga := GroupAverage{Group: g, Mean: sums[g] / float64(n), Count: n}
		if !numericSort {
			rows = append(rows, keyed{GroupAverage: ga})
			continue
		}
		k, err := strconv.ParseFloat(strings.TrimSpace(g), 64)
		if err != nil || math.IsNaN(k) {
			continue
		}
		ga.Group = strconv.Itoa(int(k))
		rows = append(rows, keyed{GroupAverage: ga, key: k})
	}
	sort.Slice(rows, func(i, j int) bool {
		if numericSort && rows[i].key != rows[j].key {
			return rows[i].key < rows[j].key
		}
		return rows[i].Group < rows[j].Group
	})
	out := make([]GroupAverage, len(rows))
	for i, r := range rows {
		out[i] = r.GroupAverage
	}
	return out
}

// Response levels.
const (
	LevelAgree    = "Agree"
	LevelNeutral  = "Neutral"
	LevelDisagree = "Disagree"
	LevelUnknown  = "Unknown"
)

// ResponseLevelOrder is the stacking order of response levels.
var ResponseLevelOrder = []string{LevelAgree, LevelNeutral, LevelDisagree, LevelUnknown}

// ResponseLevel buckets a scale value. Values strictly between 2 and 3 or
// between 3 and 4 have no bucket.
func ResponseLevel(v float64) string {
	switch {
	case v <= 2:
		return LevelDisagree
	case v == 3:
		return LevelNeutral
	case v >= 4:
		return LevelAgree
	}
	return LevelUnknown
}

// ResponseShare is the share of one group giving one response level.
type ResponseShare struct {
	Group   string  `json:"group"`
	Level   string  `json:"level"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ResponseLevels buckets targetCol per group of groupCol. Percentages are
// of the group total, rounded to one decimal. Groups are ordered by label
// and levels by ResponseLevelOrder; empty buckets are omitted.
func ResponseLevels(ds *Dataset, groupCol, targetCol string) []ResponseShare {
	pairs, ok := groupPairs(ds, groupCol, targetCol)
	if !ok {
		return nil
	}
	totals := make(map[string]int)
	counts := make(map[string]map[string]int)
	for _, p := range pairs {
		lvl := ResponseLevel(p.value)
		if counts[p.group] == nil {
			counts[p.group] = make(map[string]int)
		}
		counts[p.group][lvl]++
		totals[p.group]++
	}
	groups := make([]string, 0, len(totals))
	for g := range totals {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []ResponseShare
	for _, g := range groups {
		for _, lvl := range ResponseLevelOrder {
			n := counts[g][lvl]
			if n == 0 {
				continue
			}
			pct := math.Round(float64(n)/float64(totals[g])*1000) / 10
			out = append(out, ResponseShare{Group: g, Level: lvl, Count: n, Percent: pct})
		}
	}
	return out
}

type groupPair struct {
	group string
	value float64
}

func groupPairs(ds *Dataset, groupCol, targetCol string) ([]groupPair, bool) {
	g, ok := ds.Column(groupCol)
	if !ok {
		return nil, false
	}
	t, ok := ds.Column(targetCol)
	if !ok {
		return nil, false
	}
	var out []groupPair
	for i := range g.Cells {
		if g.Cells[i].IsAbsent() {
			continue
		}
		v, ok := t.Cells[i].Float()
		if !ok {
			continue
		}
		out = append(out, groupPair{group: g.Cells[i].String(), value: v})
	}
	return out, true
}

// Breakdown is one construct question broken down by one grouping.
type Breakdown struct {
	Construct   string          `json:"construct"`
	Group       string          `json:"group"`
	Question    string          `json:"question"`
	GroupColumn string          `json:"group_column"`
	Averages    []GroupAverage  `json:"averages"`
	Levels      []ResponseShare `json:"levels"`
}

// ConstructBreakdown compares the first question of a construct across the
// values of a grouping. It reports false when the construct has no matched
// question or the grouping has no column.
func (r *Results) ConstructBreakdown(construct, groupLabel string) (Breakdown, bool) {
	cols := r.MatchedColumns(construct)
	if len(cols) == 0 {
		return Breakdown{}, false
	}
	g, ok := LookupGroup(groupLabel)
	if !ok {
		return Breakdown{}, false
	}
	groupCol, ok := GroupColumnFor(r.Cleaned, g)
	if !ok {
		return Breakdown{}, false
	}
	return Breakdown{
		Construct:   construct,
		Group:       g.Label,
		Question:    cols[0],
		GroupColumn: groupCol,
		Averages:    GroupAverages(r.Cleaned, groupCol, cols[0], g.Label == GroupGrade),
		Levels:      ResponseLevels(r.Cleaned, groupCol, cols[0]),
	}, true
}

// PerformanceLevel grades an overall belonging score.
func PerformanceLevel(score float64) string {
	switch {
	case score >= 4.0:
		return "Excellent"
	case score >= 3.5:
		return "Good"
	case score >= 3.0:
		return "Fair"
	}
	return "Needs Attention"
}

// ConstructLevel grades a construct average.
func ConstructLevel(score float64) string {
	switch {
	case score >= 4.0:
		return "Strong"
	case score >= 3.5:
		return "Good"
	case score >= 3.0:
		return "Fair"
	}
	return "Needs Work"
}

// Recommendation is one line of report advice.
type Recommendation struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Recommendations builds the advice for a general report.
func Recommendations(r *Results) []Recommendation {
	var out []Recommendation
	if r.Lowest != nil {
		if v, _ := r.Averages.Get(*r.Lowest); v < 3.0 {
			out = append(out, Recommendation{"Priority Action",
				fmt.Sprintf("Focus immediate attention on improving %s (score: %.2f)", *r.Lowest, v)})
		}
	}
	if r.Overall == nil || *r.Overall < 3.5 {
		out = append(out, Recommendation{"Overall Improvement", "Consider school-wide belonging initiatives"})
	}
	if r.Highest != nil {
		if v, _ := r.Averages.Get(*r.Highest); v > 4.0 {
			out = append(out, Recommendation{"Leverage Strengths",
				fmt.Sprintf("Use successful practices from %s in other areas", *r.Highest)})
		}
	}
	return append(out,
		Recommendation{"Data Deep Dive", "Analyze results by demographic groups to identify specific needs"},
		Recommendation{"Student Voice", "Conduct focus groups to understand the stories behind the numbers"},
		Recommendation{"Action Planning", "Develop targeted interventions based on lowest-scoring constructs"},
	)
}

// ConstructRecommendations builds the advice for a report focused on one
// construct.
func ConstructRecommendations(construct string, score float64) []Recommendation {
	var out []Recommendation
	switch {
	case score < 3.0:
		out = append(out,
			Recommendation{"Urgent Priority", fmt.Sprintf("%s requires immediate intervention (score: %.2f)", construct, score)},
			Recommendation{"Root Cause Analysis", fmt.Sprintf("Conduct focus groups to understand why %s scores are low", construct)},
		)
	case score < 3.5:
		out = append(out,
			Recommendation{"Improvement Focus", fmt.Sprintf("Develop targeted strategies to enhance %s", construct)},
			Recommendation{"Best Practice Research", fmt.Sprintf("Study schools with higher %s scores", construct)},
		)
	default:
		out = append(out,
			Recommendation{"Maintain Excellence", fmt.Sprintf("Continue successful practices that support %s", construct)},
			Recommendation{"Share Success", fmt.Sprintf("Document and share what's working well in %s", construct)},
		)
	}
	return append(out,
		Recommendation{"Demographic Analysis", "Use the charts to identify which student groups need additional support"},
		Recommendation{"Targeted Interventions", fmt.Sprintf("Design specific programs addressing %s gaps", construct)},
		Recommendation{"Progress Monitoring", "Resurvey in 6 months to measure improvement in this focus area"},
		Recommendation{"Staff Development", "Train educators on strategies that enhance student " + strings.ToLower(construct)},
	)
}

// PerformanceContext is the one-sentence reading of a construct score.
func PerformanceContext(construct string, score float64) string {
	switch {
	case score >= 4.0:
		return construct + " shows excellent performance, indicating strong student experiences in this area."
	case score >= 3.5:
		return construct + " shows good performance with room for targeted improvements."
	case score >= 3.0:
		return construct + " shows fair performance and would benefit from focused interventions."
	}
	return construct + " requires immediate attention with comprehensive improvement strategies."
}
