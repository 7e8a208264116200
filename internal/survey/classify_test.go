package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Roles(t *testing.T) {
	ds := FromRecords(
		[]string{"Gender", "Which grade are you in?", "Grade section", "Ethnicity", "I feel safe", "Name"},
		[][]string{
			{"male", "Grade 8", "A", "SC", "Agree", "Asha"},
			{"female", "9th", "B", "General", "neutral", "Ravi"},
		},
	)
	cls := Classify(ds, DefaultRules(DefaultDemographicKeywords))

	assert.Equal(t, RoleDemographic, cls.RoleOf("Gender"))
	assert.Equal(t, RoleGrade, cls.RoleOf("Which grade are you in?"))
	assert.Equal(t, RoleUnclassified, cls.RoleOf("Grade section"))
	assert.Equal(t, RoleEthnicity, cls.RoleOf("Ethnicity"))
	assert.Equal(t, RoleLikert, cls.RoleOf("I feel safe"))
	assert.Equal(t, RoleUnclassified, cls.RoleOf("Name"))
	assert.Equal(t, "Which grade are you in?", cls.GradeColumn)
	assert.Equal(t, "Ethnicity", cls.EthnicityColumn)
	assert.Equal(t, []string{"I feel safe"}, cls.Columns(RoleLikert))
}

func TestClassify_FirstRuleWins(t *testing.T) {
	ds := FromRecords(
		[]string{"Gender agree question", "Religion"},
		[][]string{{"Agree", "Hindu"}},
	)
	cls := Classify(ds, DefaultRules(DefaultDemographicKeywords))

	assert.Equal(t, RoleDemographic, cls.RoleOf("Gender agree question"))
	assert.Equal(t, RoleDemographic, cls.RoleOf("Religion"))
	assert.Equal(t, []string{"Gender agree question"}, cls.LikertEligible)
}

func TestClassify_SecondGradeColumnFallsThrough(t *testing.T) {
	ds := FromRecords(
		[]string{"grade", "grade feeling"},
		[][]string{{"7", "Strongly agree"}},
	)
	cls := Classify(ds, DefaultRules(nil))

	assert.Equal(t, RoleGrade, cls.RoleOf("grade"))
	assert.Equal(t, RoleLikert, cls.RoleOf("grade feeling"))
}

func TestClassify_CustomRule(t *testing.T) {
	ds := FromRecords([]string{"District"}, [][]string{{"Pune"}})
	rules := append([]Rule{{Role: RoleDemographic, Match: NameContains("district")}}, DefaultRules(nil)...)
	cls := Classify(ds, rules)
	assert.Equal(t, RoleDemographic, cls.RoleOf("District"))
}

func TestHasLikertContent(t *testing.T) {
	assert.True(t, HasLikertContent(Column{Cells: []Cell{Absent(), Text("x"), Text(" agree ")}}))
	assert.False(t, HasLikertContent(Column{Cells: []Cell{Number(4), Text("agreed")}}))
	assert.False(t, HasLikertContent(Column{}))
}

func TestRole_TextRoundTrip(t *testing.T) {
	for _, r := range []Role{RoleUnclassified, RoleDemographic, RoleGrade, RoleEthnicity, RoleLikert} {
		b, err := r.MarshalText()
		require.NoError(t, err)
		var got Role
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, r, got)
	}
}

func TestMatchConstructs(t *testing.T) {
	names := []string{"I feel safe and respected", "I feel welcome", "Gender", "Do teachers listen to you?"}
	matches := MatchConstructs(names, DefaultConstructs)
	require.Len(t, matches, len(DefaultConstructs))

	byName := map[string][]string{}
	for _, m := range matches {
		byName[m.Construct] = m.Columns
	}
	assert.Equal(t, []string{"I feel safe and respected"}, byName[Safety])
	assert.Equal(t, []string{"I feel safe and respected"}, byName[Respect])
	assert.Equal(t, []string{"I feel welcome"}, byName[Welcome])
	assert.Equal(t, []string{"Do teachers listen to you?"}, byName[Acknowledgement])
	assert.Equal(t, []string{}, byName[Participation])
	assert.Equal(t, []string{}, byName[Relationships])

	assert.Equal(t, []string{"I feel safe and respected", "I feel safe and respected", "I feel welcome", "Do teachers listen to you?"},
		belongingColumns(matches))
}

func TestMatchConstructs_KeywordCaseInsensitive(t *testing.T) {
	matches := MatchConstructs([]string{"Do they CARE ABOUT HOW I FEEL"}, DefaultConstructs)
	assert.Equal(t, Relationships, matches[3].Construct)
	assert.Equal(t, []string{"Do they CARE ABOUT HOW I FEEL"}, matches[3].Columns)
}
