package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribution(t *testing.T) {
	ds := NewDataset([]string{"Gender"}, [][]Cell{
		{Text("Male")}, {Text("Female")}, {Text("Female")}, {Absent()}, {Text("Male")}, {Text("Other")},
	})
	assert.Equal(t, []Count{
		{Label: "Female", Count: 2},
		{Label: "Male", Count: 2},
		{Label: "Other", Count: 1},
		{Label: "Unknown", Count: 1},
	}, Distribution(ds, "Gender"))
	assert.Nil(t, Distribution(ds, "Religion"))
}

func TestGroupAverages_GradeSortedNumerically(t *testing.T) {
	ds := NewDataset([]string{"grade", "score"}, [][]Cell{
		{Text("10"), Number(4)},
		{Text("9"), Number(2)},
		{Text("10"), Number(5)},
		{Text("Unknown"), Number(3)},
		{Text("9"), Absent()},
		{Absent(), Number(1)},
	})
	got := GroupAverages(ds, "grade", "score", true)
	assert.Equal(t, []GroupAverage{
		{Group: "9", Mean: 2, Count: 1},
		{Group: "10", Mean: 4.5, Count: 2},
	}, got)
}

func TestGroupAverages_ByLabel(t *testing.T) {
	ds := NewDataset([]string{"g", "v"}, [][]Cell{
		{Text("b"), Text("3")},
		{Text("a"), Number(5)},
		{Text("b"), Text("x")},
	})
	assert.Equal(t, []GroupAverage{
		{Group: "a", Mean: 5, Count: 1},
		{Group: "b", Mean: 3, Count: 1},
	}, GroupAverages(ds, "g", "v", false))
}

func TestResponseLevel(t *testing.T) {
	assert.Equal(t, LevelDisagree, ResponseLevel(1))
	assert.Equal(t, LevelDisagree, ResponseLevel(2))
	assert.Equal(t, LevelNeutral, ResponseLevel(3))
	assert.Equal(t, LevelAgree, ResponseLevel(4))
	assert.Equal(t, LevelAgree, ResponseLevel(5))
	assert.Equal(t, LevelUnknown, ResponseLevel(2.5))
}

func TestResponseLevels(t *testing.T) {
	ds := NewDataset([]string{"Gender", "q"}, [][]Cell{
		{Text("Male"), Number(5)},
		{Text("Male"), Number(4)},
		{Text("Male"), Number(1)},
		{Text("Female"), Number(3)},
	})
	assert.Equal(t, []ResponseShare{
		{Group: "Female", Level: LevelNeutral, Count: 1, Percent: 100},
		{Group: "Male", Level: LevelAgree, Count: 2, Percent: 66.7},
		{Group: "Male", Level: LevelDisagree, Count: 1, Percent: 33.3},
	}, ResponseLevels(ds, "Gender", "q"))
}

func TestConstructBreakdown(t *testing.T) {
	res, err := NewPipeline().Run(sampleDataset())
	require.NoError(t, err)

	b, ok := res.ConstructBreakdown(Safety, GroupEthnicity)
	require.True(t, ok)
	assert.Equal(t, qSafe, b.Question)
	assert.Equal(t, ColEthnicityCleaned, b.GroupColumn)
	assert.NotEmpty(t, b.Averages)

	b, ok = res.ConstructBreakdown(Welcome, GroupGrade)
	require.True(t, ok)
	require.Len(t, b.Averages, 3)
	assert.Equal(t, "8", b.Averages[0].Group)
	assert.Equal(t, "10", b.Averages[2].Group)

	_, ok = res.ConstructBreakdown(Participation, GroupGender)
	assert.False(t, ok)
	_, ok = res.ConstructBreakdown(Safety, GroupHealth)
	assert.False(t, ok)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, "Excellent", PerformanceLevel(4.0))
	assert.Equal(t, "Good", PerformanceLevel(3.5))
	assert.Equal(t, "Fair", PerformanceLevel(3.2))
	assert.Equal(t, "Needs Attention", PerformanceLevel(2.9))

	assert.Equal(t, "Strong", ConstructLevel(4.2))
	assert.Equal(t, "Good", ConstructLevel(3.9))
	assert.Equal(t, "Fair", ConstructLevel(3.0))
	assert.Equal(t, "Needs Work", ConstructLevel(0))
}

func TestRecommendations(t *testing.T) {
	overall := 3.2
	hi, lo := Welcome, Respect
	r := &Results{
		Averages: Averages{{Respect, 2.5}, {Welcome, 4.5}},
		Overall:  &overall,
		Highest:  &hi,
		Lowest:   &lo,
	}
	recs := Recommendations(r)
	require.Len(t, recs, 6)
	assert.Equal(t, "Priority Action", recs[0].Title)
	assert.Contains(t, recs[0].Text, "Respect (score: 2.50)")
	assert.Equal(t, "Overall Improvement", recs[1].Title)
	assert.Equal(t, "Leverage Strengths", recs[2].Title)

	recs = ConstructRecommendations(Safety, 3.7)
	assert.Equal(t, "Maintain Excellence", recs[0].Title)
	assert.Equal(t, "Train educators on strategies that enhance student safety", recs[len(recs)-1].Text)
}
