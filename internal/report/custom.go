package report

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// ErrUnknownConstruct is returned when a custom report names a construct
// the analysis does not have.
var ErrUnknownConstruct = eris.New("report: unknown construct")

// ErrUnknownChart is returned for a chart name not in ChartOptions.
var ErrUnknownChart = eris.New("report: unknown chart")

// CustomOptions selects the focus construct and the charts, by name.
type CustomOptions struct {
	Construct string   `json:"construct"`
	Charts    []string `json:"charts"`
}

// resolve maps chart names to options, preserving request order.
func (o CustomOptions) resolve() ([]ChartOption, error) {
	avail := ChartOptions(o.Construct)
	byName := make(map[string]ChartOption, len(avail))
	for _, c := range avail {
		byName[c.Name] = c
	}
	out := make([]ChartOption, 0, len(o.Charts))
	for _, name := range o.Charts {
		c, ok := byName[name]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownChart, "%q", name)
		}
		out = append(out, c)
	}
	return out, nil
}

func comparison(score, overall float64) (string, string, string) {
	switch {
	case score > overall:
		return fmt.Sprintf("+%.2f", score-overall), "above", "#10B981"
	case score < overall:
		return fmt.Sprintf("%.2f", score-overall), "below", "#EF4444"
	}
	return "0.00", "equal to", "#6B7280"
}

// GenerateCustom writes a report focused on one construct with the
// selected charts. Charts that cannot be drawn from the data are noted in
// place.
func GenerateCustom(w io.Writer, in Input, opts CustomOptions) error {
	if err := in.validate(); err != nil {
		return err
	}
	res := in.Results
	score, ok := res.Averages.Get(opts.Construct)
	if !ok {
		return eris.Wrapf(ErrUnknownConstruct, "%q", opts.Construct)
	}
	charts, err := opts.resolve()
	if err != nil {
		return err
	}
	construct := opts.Construct
	questions := res.MatchedColumns(construct)
	date := in.date()
	school := in.schoolName()
	overall := 0.0
	if res.Overall != nil {
		overall = *res.Overall
	}
	level := survey.PerformanceLevel(score)

	d := newDoc("Apnapan Custom Report")
	d.header(in.BrandLogo, in.SchoolLogo, "Apnapan Custom Report", "Focus Area: "+construct, school,
		fmt.Sprintf("Generated on: %s | Focus: %s Analysis", date.Format(dateLayout), construct))

	d.section("Executive Summary")
	d.paragraph(fmt.Sprintf("This custom report provides an in-depth analysis of %s at %s. "+
		"The report includes %d selected visualizations to understand how this aspect of belonging "+
		"varies across different student groups.", construct, school, len(charts)))
	d.highlight([]string{
		"Key Findings for " + construct + ":",
		fmt.Sprintf("- Current score: %.2f/5.0 (%s)", score, level),
		fmt.Sprintf("- Based on responses from %d students", res.Students),
		fmt.Sprintf("- Analysis includes %d related survey questions", len(questions)),
		fmt.Sprintf("- Selected %d chart(s) for demographic breakdown analysis", len(charts)),
	})

	d.section(construct + " - Key Metrics")
	diff, word, diffColor := comparison(score, overall)
	d.metricRow(
		box{title: construct + " Score", value: fmt.Sprintf("%.2f", score),
			note: fmt.Sprintf("out of 5.0 (%s)", level), bg: "#F8FAFC", color: levelColor(score)},
		box{title: "Students Surveyed", value: fmt.Sprint(res.Students), note: "participants", bg: "#F0F9FF"},
		box{title: "vs Overall Belonging", value: diff,
			note: fmt.Sprintf("%s average (%.2f)", word, overall), bg: "#F9FAFB", color: diffColor},
	)

	if len(questions) > 0 {
		d.subheading("Survey Questions Analyzed")
		var lines []string
		for i, q := range questions[:min(5, len(questions))] {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, q))
		}
		if len(questions) > 5 {
			lines = append(lines, fmt.Sprintf("... and %d more questions", len(questions)-5))
		}
		for _, l := range lines {
			d.paragraph(l)
		}
	}

	d.section("Demographic Analysis Charts")
	d.paragraph(fmt.Sprintf("The following %d chart(s) show how %s varies across different student groups:",
		len(charts), construct))
	drawn := 0
	for i, c := range charts {
		png, err := Render(res, construct, c)
		if err == nil {
			width := contentW * 0.9
			if c.Kind == KindDemographicPie {
				width = contentW * 0.55
			}
			d.subheading(fmt.Sprintf("Chart %d: %s", i+1, c.Name))
			if d.image(png, margin+(contentW-width)/2, -1, width) {
				d.paragraph(c.Description)
				drawn++
				continue
			}
		}
		zap.L().Debug("report: chart not drawn", zap.String("chart", c.Name), zap.Error(err))
		d.pdf.SetFont("Helvetica", "I", 10)
		d.textColor("#DC2626")
		d.pdf.MultiCell(0, 5, d.tr("Chart could not be generated: "+c.Name), "", "L", false)
		d.pdf.Ln(2)
	}

	if drawn > 0 {
		d.section("Key Insights & Observations")
		d.highlight([]string{
			"Performance Analysis:",
			survey.PerformanceContext(construct, score),
			"",
			"Chart Analysis:",
			fmt.Sprintf("- This report includes %d visualization(s) focusing on %s", drawn, construct),
			"- Charts reveal how different demographic groups experience this aspect of belonging",
			"- Look for patterns in scores across gender, grade level, and other demographic factors",
			"",
			"Survey Coverage:",
			fmt.Sprintf("- Analysis based on %d survey question(s)", len(questions)),
			fmt.Sprintf("- %d student responses analyzed", res.Students),
			fmt.Sprintf("- Current score: %.2f/5.0 compared to overall belonging score of %.2f/5.0", score, overall),
		})
	}

	d.section("Targeted Recommendations")
	var recs []string
	for _, r := range survey.ConstructRecommendations(construct, score) {
		recs = append(recs, r.Title+": "+r.Text)
	}
	d.bullets(recs)

	d.section("Reflection Questions")
	d.bullets([]string{
		fmt.Sprintf("Which demographic groups show the strongest/weakest %s scores?", construct),
		fmt.Sprintf("What specific school practices might be influencing %s outcomes?", construct),
		fmt.Sprintf("How does %s connect to other aspects of student belonging?", construct),
		fmt.Sprintf("What barriers might prevent students from experiencing strong %s?", construct),
		fmt.Sprintf("Which interventions could most effectively improve %s scores?", construct),
		fmt.Sprintf("How can high-performing groups in %s mentor others?", construct),
	})

	d.closing(fmt.Sprintf("This custom report was generated by the Apnapan Pulse platform focusing on %s. "+
		"For additional analysis or support with action planning, please contact your Apnapan representative.\n"+
		"Custom Report ID: %s", construct, reportID("AP-CUSTOM", date, construct, school)))

	if err := d.pdf.Output(w); err != nil {
		return eris.Wrap(err, "report: write pdf")
	}
	return nil
}
