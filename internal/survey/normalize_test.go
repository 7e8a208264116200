package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLikert_Canonical(t *testing.T) {
	cases := map[string]float64{
		"Strongly Disagree": 1,
		"strongly disagree": 1,
		"  DISAGREE ":       2,
		"neutral":           3,
		"Agree":             4,
		"STRONGLY AGREE  ":  5,
	}
	for in, want := range cases {
		got := NormalizeLikert(Text(in))
		assert.Equal(t, KindNumber, got.Kind, in)
		assert.Equal(t, want, got.Num, in)
	}
}

func TestNormalizeLikert_OtherValuesAbsent(t *testing.T) {
	for _, c := range []Cell{Text("Agreed"), Text("Somewhat agree"), Text(""), Number(4), Absent()} {
		assert.True(t, NormalizeLikert(c).IsAbsent(), c.String())
	}
}

func TestNormalizeGrade(t *testing.T) {
	cases := []struct {
		in   Cell
		want string
	}{
		{Text("Grade 10"), "10"},
		{Text("10th"), "10"},
		{Text(""), "Unknown"},
		{Text("N/A"), "N/A"},
		{Text("class 7 section 2"), "7"},
		{Number(9), "9"},
		{Absent(), "Unknown"},
		{Text("  NAN "), "Unknown"},
		{Text("senior kg"), "Senior Kg"},
	}
	for _, tc := range cases {
		assert.Equal(t, Text(tc.want), NormalizeGrade(tc.in), tc.in.String())
	}
}

func TestNormalizeDemographic(t *testing.T) {
	assert.Equal(t, Text("Female"), NormalizeDemographic(Text("  female ")))
	assert.Equal(t, Text("Prefer Not To Say"), NormalizeDemographic(Text("PREFER NOT TO SAY")))
	assert.Equal(t, Text("Unknown"), NormalizeDemographic(Absent()))
	assert.Equal(t, Text("Unknown"), NormalizeDemographic(Text("nan")))
}

func TestCleanEthnicity_Precedence(t *testing.T) {
	cases := map[string]string{
		"OBC/Other":        "OBC",
		"General Category": "General",
		"Unknown":          "Unknown",
		"SC":               "SC",
		"st":               "ST",
		"Don't know":       "Don't Know",
		"general / sc":     "General",
		"sc or st":         "SC",
		"other":            "OBC",
		"muslim":           "Muslim",
	}
	for in, want := range cases {
		assert.Equal(t, Text(want), CleanEthnicity(Text(in)), in)
	}
}

func TestCleanEthnicity_AbsentFallsThroughToTitleCase(t *testing.T) {
	assert.Equal(t, Text("Nan"), CleanEthnicity(Absent()))
	assert.Equal(t, Text("Nan"), CleanEthnicity(Text("  nan ")))
}

func TestTitleCase_Apostrophes(t *testing.T) {
	assert.Equal(t, "Don't Know", titleCase("don't know"))
	assert.Equal(t, "Children's Home", titleCase("CHILDREN'S HOME"))
	assert.Equal(t, "10Th", titleCase("10th"))
}

func TestCategorizeIncome(t *testing.T) {
	assert.Equal(t, IncomeHigh, CategorizeIncome(Text("Car, Apna Ghar")))
	assert.Equal(t, IncomeMid, CategorizeIncome(Text("Laptop")))
	assert.Equal(t, IncomeMid, CategorizeIncome(Text("computer, car")))
	assert.Equal(t, IncomeMid, CategorizeIncome(Text("Apna ghar, TV")))
	assert.Equal(t, IncomeLow, CategorizeIncome(Text("Rent")))
	assert.Equal(t, IncomeLow, CategorizeIncome(Text("Car")))
	assert.Equal(t, IncomeUnknown, CategorizeIncome(Absent()))
}
