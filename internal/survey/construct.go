package survey

import "strings"

// Construct is a named belonging dimension and the keywords that identify
// its questions.
type Construct struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Construct names.
const (
	Safety          = "Safety"
	Respect         = "Respect"
	Welcome         = "Welcome"
	Relationships   = "Relationships with Teachers"
	Participation   = "Participation"
	Acknowledgement = "Acknowledgement"
)

// DefaultConstructs is the fixed construct dictionary, in report order.
// Keywords are English and Hindi (romanised) fragments of question text.
var DefaultConstructs = []Construct{
	{Name: Safety, Keywords: []string{"safe", "surakshit"}},
	{Name: Respect, Keywords: []string{"respected", "izzat", "as much respect"}},
	{Name: Welcome, Keywords: []string{"being welcomed", "welcome", "swagat"}},
	{Name: Relationships, Keywords: []string{
		"one teacher", "share your problem", "care about your feelings",
		" care about how I feel", "feel close", "close to your teachers",
	}},
	{Name: Participation, Keywords: []string{
		"opportunities", "participate", "school activities", "take part", "join in many activities",
	}},
	{Name: Acknowledgement, Keywords: []string{
		"notice", "noticed", "listen to you", "dekhein", "acknowledge", "recognized",
		"listen to what I say", "valued", "heard", "seen", "like you", "like me", "do something well",
	}},
}

// ConstructMatch lists the columns claimed by one construct.
type ConstructMatch struct {
	Construct string   `json:"construct"`
	Columns   []string `json:"columns"`
}

// MatchConstructs assigns column names to constructs by case-insensitive
// keyword substring. Column order is preserved, a column may be claimed by
// several constructs, and every construct is present even with no columns.
func MatchConstructs(names []string, constructs []Construct) []ConstructMatch {
	out := make([]ConstructMatch, len(constructs))
	for i, c := range constructs {
		cols := []string{}
		for _, name := range names {
			if containsAny(strings.ToLower(name), c.Keywords) {
				cols = append(cols, name)
			}
		}
		out[i] = ConstructMatch{Construct: c.Name, Columns: cols}
	}
	return out
}

// belongingColumns flattens the matches, keeping duplicates: a column that
// belongs to two constructs counts twice.
func belongingColumns(matches []ConstructMatch) []string {
	var out []string
	for _, m := range matches {
		out = append(out, m.Columns...)
	}
	return out
}
