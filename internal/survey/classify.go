package survey

import "strings"

// Role is the semantic role assigned to a column.
type Role int

const (
	RoleUnclassified Role = iota
	RoleDemographic
	RoleGrade
	RoleEthnicity
	RoleLikert
)

func (r Role) String() string {
	switch r {
	case RoleDemographic:
		return "demographic"
	case RoleGrade:
		return "grade"
	case RoleEthnicity:
		return "ethnicity"
	case RoleLikert:
		return "likert"
	default:
		return "unclassified"
	}
}

// MarshalText lets roles serialize by name.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText is the inverse of MarshalText. Unknown names decode as
// RoleUnclassified.
func (r *Role) UnmarshalText(b []byte) error {
	for _, candidate := range []Role{RoleDemographic, RoleGrade, RoleEthnicity, RoleLikert} {
		if candidate.String() == string(b) {
			*r = candidate
			return nil
		}
	}
	*r = RoleUnclassified
	return nil
}

// Default column keywords.
var (
	DefaultDemographicKeywords = []string{"gender", "religion"}

	gradeKeyword     = "grade"
	ethnicityKeyword = "ethnicity"
)

// Rule assigns Role to a column when Match returns true. Single marks
// roles that only the first matching column may take.
type Rule struct {
	Role   Role
	Single bool
	Match  func(col Column) bool
}

// NameContains matches columns whose lower-cased name contains any keyword.
func NameContains(keywords ...string) func(Column) bool {
	return func(col Column) bool {
		return containsAny(strings.ToLower(col.Name), keywords)
	}
}

// HasLikertContent matches columns holding at least one canonical Likert
// label. The test looks at values only, so a column that happens to contain
// the word "Agree" for another reason is still picked up.
func HasLikertContent(col Column) bool {
	for _, c := range col.Cells {
		if c.IsAbsent() {
			continue
		}
		if _, ok := LikertValue(c); ok {
			return true
		}
	}
	return false
}

// DefaultRules returns the classification rules in priority order.
func DefaultRules(demographicKeywords []string) []Rule {
	return []Rule{
		{Role: RoleDemographic, Match: NameContains(demographicKeywords...)},
		{Role: RoleGrade, Single: true, Match: NameContains(gradeKeyword)},
		{Role: RoleEthnicity, Single: true, Match: NameContains(ethnicityKeyword)},
		{Role: RoleLikert, Match: HasLikertContent},
	}
}

// ColumnRole pairs a column with its role.
type ColumnRole struct {
	Column string `json:"column"`
	Role   Role   `json:"role"`
}

// Classification is the outcome of classifying every column of a dataset.
type Classification struct {
	Roles           []ColumnRole `json:"roles"`
	GradeColumn     string       `json:"grade_column,omitempty"`
	EthnicityColumn string       `json:"ethnicity_column,omitempty"`
	// LikertEligible lists every column with Likert content, whatever
	// role it was given.
	LikertEligible []string `json:"likert_eligible"`
}

// RoleOf returns the role assigned to the named column.
func (c Classification) RoleOf(name string) Role {
	for _, cr := range c.Roles {
		if cr.Column == name {
			return cr.Role
		}
	}
	return RoleUnclassified
}

// Columns returns the names of columns carrying role r, in dataset order.
func (c Classification) Columns(r Role) []string {
	var out []string
	for _, cr := range c.Roles {
		if cr.Role == r {
			out = append(out, cr.Column)
		}
	}
	return out
}

// Classify assigns each column the role of the first matching rule.
func Classify(ds *Dataset, rules []Rule) Classification {
	var out Classification
	taken := make(map[Role]bool)
	for _, col := range ds.Columns {
		role := RoleUnclassified
		for _, r := range rules {
			if r.Single && taken[r.Role] {
				continue
			}
			if r.Match(col) {
				role = r.Role
				if r.Single {
					taken[r.Role] = true
				}
				break
			}
		}
		switch role {
		case RoleGrade:
			out.GradeColumn = col.Name
		case RoleEthnicity:
			out.EthnicityColumn = col.Name
		}
		out.Roles = append(out.Roles, ColumnRole{Column: col.Name, Role: role})
		if HasLikertContent(col) {
			out.LikertEligible = append(out.LikertEligible, col.Name)
		}
	}
	return out
}
