package survey

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical Likert labels and their scale values.
var likertScale = map[string]float64{
	"Strongly Disagree": 1,
	"Disagree":          2,
	"Neutral":           3,
	"Agree":             4,
	"Strongly Agree":    5,
}

// LikertLabels lists the canonical labels in scale order.
var LikertLabels = []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}

const unknown = "Unknown"

var digitRun = regexp.MustCompile(`\d+`)

// titleCase upper-cases the first letter of each word and lower-cases the
// rest. A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// cleanText is the trim + title-case step shared by several rules.
func cleanText(c Cell) string {
	return titleCase(strings.TrimSpace(c.String()))
}

// LikertValue maps a cell to its 1–5 scale value.
func LikertValue(c Cell) (float64, bool) {
	v, ok := likertScale[cleanText(c)]
	return v, ok
}

// NormalizeLikert recodes a canonical label to its scale value. Anything
// else, numbers included, becomes absent.
func NormalizeLikert(c Cell) Cell {
	if v, ok := LikertValue(c); ok {
		return Number(v)
	}
	return Absent()
}

// NormalizeDemographic trims and title-cases a demographic value. Missing
// values become "Unknown".
func NormalizeDemographic(c Cell) Cell {
	s := cleanText(c)
	if s == "Nan" {
		return Text(unknown)
	}
	return Text(s)
}

// NormalizeGrade keeps the first run of digits ("10th" -> "10"). Values with
// no digits are title-cased, and blanks become "Unknown".
func NormalizeGrade(c Cell) Cell {
	s := strings.TrimSpace(c.String())
	if d := digitRun.FindString(s); d != "" {
		return Text(d)
	}
	if l := strings.ToLower(s); l == "nan" || l == "" {
		return Text(unknown)
	}
	return Text(titleCase(s))
}

// CleanEthnicity buckets a free-text caste/ethnicity answer. The substring
// tests run in a fixed order and must stay that way: "sc" before "st", and
// "other" before "st". Anything unmatched, absent cells included, keeps
// its own trimmed title-cased text.
func CleanEthnicity(c Cell) Cell {
	v := strings.ToLower(strings.TrimSpace(c.String()))
	switch {
	case strings.Contains(v, "general"):
		return Text("General")
	case strings.Contains(v, "sc"):
		return Text("SC")
	case strings.Contains(v, "other"):
		return Text("OBC")
	case strings.Contains(v, "do"):
		return Text("Don't Know")
	case strings.Contains(v, "st"):
		return Text("ST")
	}
	return Text(cleanText(c))
}

// Income categories.
const (
	IncomeHigh    = "High"
	IncomeMid     = "Mid"
	IncomeLow     = "Low"
	IncomeUnknown = "Unknown"
)

// CategorizeIncome buckets a household possessions answer into an ordinal
// socio-economic category.
func CategorizeIncome(c Cell) string {
	if c.IsAbsent() {
		return IncomeUnknown
	}
	items := strings.ToLower(c.String())
	hasCar := strings.Contains(items, "car")
	hasComputer := strings.Contains(items, "computer") || strings.Contains(items, "laptop")
	hasHome := strings.Contains(items, "apna ghar")
	isRented := strings.Contains(items, "rent")
	_ = isRented // detected but not part of the decision

	if hasCar && hasHome {
		return IncomeHigh
	}
	if hasComputer || (hasHome && !hasCar) {
		return IncomeMid
	}
	return IncomeLow
}

func mapCells(cells []Cell, fn func(Cell) Cell) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = fn(c)
	}
	return out
}
