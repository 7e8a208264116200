package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// DefaultTitle heads reports when Input.Title is empty.
const DefaultTitle = "Apnapan Pulse Report"

const dateLayout = "02 January, 2006"

// Input is everything a report needs besides the chart selection.
type Input struct {
	Title      string
	SchoolName string
	SchoolLogo []byte
	BrandLogo  []byte
	Date       time.Time
	Results    *survey.Results
}

func (in Input) validate() error {
	if in.Results == nil || in.Results.Cleaned == nil {
		return eris.New("report: no analysis results")
	}
	return nil
}

func (in Input) title() string {
	if in.Title == "" {
		return DefaultTitle
	}
	return in.Title
}

func (in Input) date() time.Time {
	if in.Date.IsZero() {
		return time.Now()
	}
	return in.Date
}

func (in Input) schoolName() string {
	if strings.TrimSpace(in.SchoolName) == "" {
		return "Your School"
	}
	return in.SchoolName
}

// levelColor is the accent for a performance level.
func levelColor(score float64) string {
	switch {
	case score >= 4.0:
		return "#10B981"
	case score >= 3.5:
		return "#3B82F6"
	case score >= 3.0:
		return "#F59E0B"
	}
	return "#EF4444"
}

func orNotDetermined(s *string) string {
	if s == nil {
		return "Not determined"
	}
	return *s
}

var reflectionQuestions = []string{
	"Which demographic groups show the most significant differences in belonging scores?",
	"What school policies or practices might be contributing to these patterns?",
	"How do these results align with other school data (attendance, achievement, discipline)?",
	"What student voices and perspectives are missing from this quantitative data?",
	"Which interventions could have the greatest impact on overall belonging?",
	"How can the school's strengths be leveraged to address areas of concern?",
}

// reportID tags a report with its date and the first letters of name.
func reportID(prefix string, date time.Time, parts ...string) string {
	id := prefix + "-" + date.Format("20060102")
	for _, p := range parts {
		r := []rune(strings.ToUpper(p))
		id += "-" + string(r[:min(3, len(r))])
	}
	return id
}

// Generate writes the general school report.
func Generate(w io.Writer, in Input) error {
	if err := in.validate(); err != nil {
		return err
	}
	res := in.Results
	date := in.date()
	school := in.schoolName()
	overall := 0.0
	if res.Overall != nil {
		overall = *res.Overall
	}
	level := survey.PerformanceLevel(overall)

	d := newDoc(in.title())
	d.header(in.BrandLogo, in.SchoolLogo, in.title(), "School Belonging Assessment", school,
		fmt.Sprintf("Generated on: %s | Academic Year: %d-%d", date.Format(dateLayout), date.Year(), date.Year()+1))

	d.section("Executive Summary")
	d.paragraph(fmt.Sprintf("This report presents the results of the Apnapan Pulse survey conducted at %s. "+
		"The survey assessed students' sense of belonging across multiple dimensions.", school))
	d.highlight([]string{
		"Key Findings:",
		fmt.Sprintf("- %d students participated in the survey", res.Students),
		fmt.Sprintf("- Overall belonging score: %.2f/5.0 (%s)", overall, level),
		"- Strongest area: " + orNotDetermined(res.Highest),
		"- Area for improvement: " + orNotDetermined(res.Lowest),
	})

	d.section("Key Metrics Overview")
	d.metricRow(
		box{title: "Overall Belonging Score", value: fmt.Sprintf("%.2f", overall),
			note: fmt.Sprintf("out of 5.0 (%s)", level), bg: "#F8FAFC", color: levelColor(overall)},
		box{title: "Students Surveyed", value: fmt.Sprint(res.Students), note: "participants", bg: "#F0F9FF"},
	)
	strong, weak := 0.0, 0.0
	if res.Highest != nil {
		strong, _ = res.Averages.Get(*res.Highest)
	}
	if res.Lowest != nil {
		weak, _ = res.Averages.Get(*res.Lowest)
	}
	d.metricRow(
		box{title: "Strongest Area", value: fmt.Sprintf("%.2f", strong), note: orNotDetermined(res.Highest),
			bg: "#ECFDF5", color: "#10B981"},
		box{title: "Area for Improvement", value: fmt.Sprintf("%.2f", weak), note: orNotDetermined(res.Lowest),
			bg: "#FEF2F2", color: "#EF4444"},
	)

	d.section("Demographics & Construct Analysis")
	d.subheading("Construct Scores Summary")
	var rows [][]string
	for _, a := range res.Averages {
		rows = append(rows, []string{a.Name, fmt.Sprintf("%.2f", a.Value), survey.ConstructLevel(a.Value)})
	}
	if len(rows) == 0 {
		rows = [][]string{{"-", "-", "-"}}
	}
	d.table([]float64{110, 35, 45}, []string{"Construct", "Score", "Level"}, rows)
	d.paragraph("Score Interpretation: 4.0+ : Strong | 3.5-3.9 : Good | 3.0-3.4 : Fair | <3.0 : Needs Work")

	d.subheading("Student Demographics")
	placed := 0
	const pieW = 92.0
	top := d.pdf.GetY()
	for _, g := range []string{survey.GroupGender, survey.GroupReligion} {
		png, err := GroupPie(res, g, g+" Distribution")
		if err != nil {
			zap.L().Debug("report: skip pie", zap.String("group", g), zap.Error(err))
			continue
		}
		if placed == 0 {
			d.ensure(pieW * 420 / 640)
			top = d.pdf.GetY()
		}
		d.image(png, margin+float64(placed)*(pieW+6), top, pieW)
		placed++
	}
	if placed == 0 {
		d.paragraph("Demographic charts will be displayed when data is available.")
	} else {
		d.pdf.SetY(top + pieW*420/640 + 4)
	}

	d.section("Recommendations")
	var recs []string
	for _, r := range survey.Recommendations(res) {
		recs = append(recs, r.Title+": "+r.Text)
	}
	d.bullets(recs)

	d.section("Food for Thought")
	d.bullets(reflectionQuestions)

	d.closing("This report was generated by the Apnapan Pulse platform. For questions about methodology " +
		"or support with action planning, please contact your Apnapan representative.\n" +
		"Report ID: " + reportID("AP", date, school))

	if err := d.pdf.Output(w); err != nil {
		return eris.Wrap(err, "report: write pdf")
	}
	return nil
}
