package survey

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qSafe    = "I feel safe at school"
	qRespect = "I feel respected by teachers"
	qWelcome = "I feel welcome in my school"
)

func sampleDataset() *Dataset {
	return FromRecords(
		[]string{"Gender", "Which grade are you in?", "Ethnicity", "What items among these do you have at home?", qSafe, qRespect, qWelcome},
		[][]string{
			{"male", "Grade 8", "SC", "Car, Apna Ghar", "Strongly Agree", "Agree", "Agree"},
			{"female", "8th", "General", "Laptop", "Agree", "agree", "Neutral"},
			{" Female", "Grade 9", "OBC/Other", "", "Neutral", "Disagree", "Agree"},
			{"MALE", "9", "", "Rent", "Agree", "Strongly Agree", "Strongly Agree"},
			{"", "Grade 10", "st", "Apna ghar", "Disagree", "Neutral", "Agree"},
			{"female", "10th", "Don't know", "TV", "Strongly Disagree", "Disagree", "Neutral"},
			{"male", "", "General", "Computer", "Agree", "Agree", "Agree"},
			{"female", "Grade 8", "sc", "car", "Strongly Agree", "Agree", "Strongly Agree"},
			{"male", "Grade 9", "General", "Apna Ghar, Car", "Neutral", "Neutral", "Disagree"},
			{"female", "Grade 10", "SC", "laptop", "agree", "maybe", "Agree"},
		},
	)
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	res, err := NewPipeline().Run(sampleDataset())
	require.NoError(t, err)

	assert.Equal(t, 10, res.Students)
	assert.Equal(t, []string{qSafe}, res.MatchedColumns(Safety))
	assert.Equal(t, []string{qRespect}, res.MatchedColumns(Respect))
	assert.Equal(t, []string{qWelcome}, res.MatchedColumns(Welcome))

	safety, _ := res.Averages.Get(Safety)
	respect, _ := res.Averages.Get(Respect)
	welcome, _ := res.Averages.Get(Welcome)
	participation, _ := res.Averages.Get(Participation)
	assert.InDelta(t, 3.5, safety, 1e-9)
	assert.InDelta(t, 31.0/9.0, respect, 1e-9)
	assert.InDelta(t, 3.8, welcome, 1e-9)
	assert.Equal(t, 0.0, participation)

	require.NotNil(t, res.Overall)
	assert.InDelta(t, 3.6, *res.Overall, 1e-9)
	require.NotNil(t, res.Highest)
	require.NotNil(t, res.Lowest)
	assert.Equal(t, Welcome, *res.Highest)
	assert.Equal(t, Respect, *res.Lowest)
}

func TestPipelineRun_CleanedColumns(t *testing.T) {
	res, err := NewPipeline().Run(sampleDataset())
	require.NoError(t, err)
	ds := res.Cleaned

	gender, _ := ds.Column("Gender")
	assert.Equal(t, Text("Male"), gender.Cells[0])
	assert.Equal(t, Text("Female"), gender.Cells[2])
	assert.Equal(t, Text("Male"), gender.Cells[3])
	assert.Equal(t, Text("Unknown"), gender.Cells[4])

	grade, _ := ds.Column("Which grade are you in?")
	assert.Equal(t, Text("8"), grade.Cells[0])
	assert.Equal(t, Text("8"), grade.Cells[1])
	assert.Equal(t, Text("Unknown"), grade.Cells[6])

	eth, ok := ds.Column(ColEthnicityCleaned)
	require.True(t, ok)
	assert.Equal(t, Text("SC"), eth.Cells[0])
	assert.Equal(t, Text("OBC"), eth.Cells[2])
	assert.Equal(t, Text("Nan"), eth.Cells[3])
	assert.Equal(t, Text("ST"), eth.Cells[4])
	assert.Equal(t, Text("Don't Know"), eth.Cells[5])

	income, ok := ds.Column(ColIncomeCategory)
	require.True(t, ok)
	assert.Equal(t, []Cell{
		Text(IncomeHigh), Text(IncomeMid), Text(IncomeUnknown), Text(IncomeLow), Text(IncomeMid),
		Text(IncomeLow), Text(IncomeMid), Text(IncomeLow), Text(IncomeHigh), Text(IncomeMid),
	}, income.Cells)

	respect, _ := ds.Column(qRespect)
	assert.Equal(t, Number(4), respect.Cells[0])
	assert.True(t, respect.Cells[9].IsAbsent())

	score, ok := ds.Column(ColBelongingScore)
	require.True(t, ok)
	assert.InDelta(t, 13.0/3.0, score.Cells[0].Num, 1e-9)
	assert.Equal(t, Number(4), score.Cells[9])

	count, _ := ds.Column(ColBelongingCount)
	assert.Equal(t, Number(2), count.Cells[9])

	names := ds.Names()
	assert.Equal(t, []string{ColEthnicityCleaned, ColIncomeCategory, ColKaashScore, ColBelongingRaw, ColBelongingCount, ColBelongingScore},
		names[len(names)-6:])
}

func TestPipelineRun_DoesNotMutateInput(t *testing.T) {
	in := sampleDataset()
	before := in.Clone()
	_, err := NewPipeline().Run(in)
	require.NoError(t, err)
	assert.Equal(t, before, in)
}

func TestPipelineRun_Idempotent(t *testing.T) {
	p := NewPipeline()
	a, err := p.Run(sampleDataset())
	require.NoError(t, err)
	b, err := p.Run(sampleDataset())
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(a, b))
}

func TestPipelineRun_NoBelongingColumns(t *testing.T) {
	ds := FromRecords([]string{"Gender", "Name"}, [][]string{{"male", "A"}, {"female", "B"}})
	res, err := NewPipeline().Run(ds)
	require.NoError(t, err)

	assert.Nil(t, res.Overall)
	assert.Nil(t, res.Highest)
	assert.Nil(t, res.Lowest)
	for _, a := range res.Averages {
		assert.Equal(t, 0.0, a.Value)
	}
	score, _ := res.Cleaned.Column(ColBelongingScore)
	assert.Equal(t, []Cell{Number(0), Number(0)}, score.Cells)
}

func TestPipelineRun_EmptyDataset(t *testing.T) {
	res, err := NewPipeline().Run(FromRecords([]string{qSafe}, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Students)
	assert.Nil(t, res.Overall)
}

func TestPipelineRun_RaggedDataset(t *testing.T) {
	ds := &Dataset{Columns: []Column{
		{Name: "a", Cells: []Cell{Text("x"), Text("y")}},
		{Name: "b", Cells: []Cell{Text("x")}},
	}}
	res, err := NewPipeline().Run(ds)
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestPipelineRun_Options(t *testing.T) {
	ds := FromRecords(
		[]string{"District", "I feel curious", "wish 1"},
		[][]string{{"pune", "Agree", "2"}},
	)
	p := NewPipeline(
		WithConstructs([]Construct{{Name: "Curiosity", Keywords: []string{"curious"}}}),
		WithDemographicKeywords([]string{"district"}),
		WithKaashMarker("wish"),
	)
	res, err := p.Run(ds)
	require.NoError(t, err)

	district, _ := res.Cleaned.Column("District")
	assert.Equal(t, Text("Pune"), district.Cells[0])
	require.NotNil(t, res.Overall)
	assert.Equal(t, 2.0, *res.Overall)
	assert.Equal(t, []string{"district"}, res.DemographicKeywords)
	assert.Equal(t, "Curiosity", *res.Highest)
}

func TestResults_MatchedTable(t *testing.T) {
	r := &Results{Matched: []ConstructMatch{
		{Construct: Safety, Columns: []string{"s1", "s2"}},
		{Construct: Respect, Columns: []string{}},
		{Construct: Welcome, Columns: []string{"w1"}},
	}}
	assert.Equal(t, [][]string{
		{Safety, Respect, Welcome},
		{"s1", "", "w1"},
		{"s2", "", ""},
	}, r.MatchedTable())
}
