package report

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ProjectApnapan/apnapan-pulse/internal/chart"
	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// ChartKind selects how a custom report chart is drawn.
type ChartKind string

const (
	KindDemographicPie      ChartKind = "demographic_pie"
	KindConstructByGroup    ChartKind = "construct_vs_demographic"
	KindPercentageBreakdown ChartKind = "percentage_breakdown"
)

// ChartOption is one chart a custom report can include.
type ChartOption struct {
	Name        string    `json:"name"`
	Kind        ChartKind `json:"kind"`
	Group       string    `json:"group"`
	Description string    `json:"description"`
}

// ChartOptions lists the charts available for a custom report on construct.
func ChartOptions(construct string) []ChartOption {
	opts := []ChartOption{
		{Name: "Gender Distribution", Kind: KindDemographicPie, Group: survey.GroupGender,
			Description: "Pie chart showing gender distribution of respondents"},
		{Name: "Religion Distribution", Kind: KindDemographicPie, Group: survey.GroupReligion,
			Description: "Pie chart showing religion distribution of respondents"},
		{Name: "Grade Distribution", Kind: KindDemographicPie, Group: survey.GroupGrade,
			Description: "Pie chart showing grade distribution of respondents"},
	}
	for _, g := range []string{
		survey.GroupGender, survey.GroupGrade, survey.GroupReligion,
		survey.GroupIncome, survey.GroupEthnicity, survey.GroupHealth,
	} {
		opts = append(opts, ChartOption{
			Name:        fmt.Sprintf("%s by %s", construct, g),
			Kind:        KindConstructByGroup,
			Group:       g,
			Description: fmt.Sprintf("Bar chart showing %s scores by %s", construct, strings.ToLower(g)),
		})
	}
	return append(opts, ChartOption{
		Name:        "Gender Breakdown (Percentage)",
		Kind:        KindPercentageBreakdown,
		Group:       survey.GroupGender,
		Description: fmt.Sprintf("Stacked bar chart showing percentage breakdown of %s responses by gender", construct),
	})
}

// GroupPie draws the distribution of a demographic grouping.
func GroupPie(res *survey.Results, group, title string) ([]byte, error) {
	g, ok := survey.LookupGroup(group)
	if !ok {
		return nil, eris.Errorf("report: unknown group %q", group)
	}
	col, ok := survey.GroupColumnFor(res.Cleaned, g)
	if !ok {
		return nil, chart.ErrNoData
	}
	dist := survey.Distribution(res.Cleaned, col)
	labels := make([]string, len(dist))
	counts := make([]int, len(dist))
	for i, c := range dist {
		labels[i] = c.Label
		counts[i] = c.Count
	}
	return chart.Pie(title, labels, counts)
}

// ConstructBar draws the average of a construct's first question per group.
func ConstructBar(res *survey.Results, construct, group, title string) ([]byte, error) {
	bd, ok := res.ConstructBreakdown(construct, group)
	if !ok || len(bd.Averages) == 0 {
		return nil, chart.ErrNoData
	}
	labels := make([]string, len(bd.Averages))
	values := make([]float64, len(bd.Averages))
	notes := make([]string, len(bd.Averages))
	top := 0.0
	for i, a := range bd.Averages {
		labels[i] = a.Group
		values[i] = a.Mean
		notes[i] = fmt.Sprintf("N=%d", a.Count)
		top = max(top, a.Mean)
	}
	return chart.Bar(title, labels, values, chart.Options{
		XLabel: bd.Group,
		YLabel: "Average Score",
		YMax:   top + 0.5,
		Notes:  notes,
	})
}

// LevelBreakdown draws stacked Agree / Neutral / Disagree shares per group.
func LevelBreakdown(res *survey.Results, construct, group, title string) ([]byte, error) {
	bd, ok := res.ConstructBreakdown(construct, group)
	if !ok || len(bd.Levels) == 0 {
		return nil, chart.ErrNoData
	}
	var groups []string
	index := make(map[string]int)
	for _, s := range bd.Levels {
		if _, seen := index[s.Group]; !seen {
			index[s.Group] = len(groups)
			groups = append(groups, s.Group)
		}
	}
	var series []chart.Series
	for _, lvl := range survey.ResponseLevelOrder {
		values := make([]float64, len(groups))
		present := false
		for _, s := range bd.Levels {
			if s.Level == lvl {
				values[index[s.Group]] = s.Percent
				present = true
			}
		}
		if present {
			series = append(series, chart.Series{Name: lvl, Color: chart.LevelColors[lvl], Values: values})
		}
	}
	return chart.Stacked(title, groups, series, chart.Options{
		XLabel: bd.Group,
		YLabel: "Percentage (%)",
	})
}

// Render draws one custom report chart.
func Render(res *survey.Results, construct string, opt ChartOption) ([]byte, error) {
	switch opt.Kind {
	case KindDemographicPie:
		return GroupPie(res, opt.Group, opt.Name)
	case KindConstructByGroup:
		return ConstructBar(res, construct, opt.Group, opt.Name)
	case KindPercentageBreakdown:
		return LevelBreakdown(res, construct, opt.Group, opt.Name)
	}
	return nil, eris.Errorf("report: unknown chart kind %q", opt.Kind)
}
