// Package report assembles the downloadable PDF reports from a finished
// analysis.
package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	pageW    = 210.0
	pageH    = 297.0
	margin   = 10.0
	bottom   = 15.0
	contentW = pageW - 2*margin
)

// doc wraps an A4 portrait document with the report's text styles.
type doc struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	images int
}

func newDoc(footer string) *doc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, bottom)
	d := &doc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		d.textColor("#6B7280")
		pdf.CellFormat(0, 6, d.tr(fmt.Sprintf("%s | Page %d", footer, pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return d
}

func rgb(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

func (d *doc) textColor(hex string) { d.pdf.SetTextColor(rgb(hex)) }
func (d *doc) fillColor(hex string) { d.pdf.SetFillColor(rgb(hex)) }
func (d *doc) drawColor(hex string) { d.pdf.SetDrawColor(rgb(hex)) }

// ensure starts a new page when h millimetres do not fit.
func (d *doc) ensure(h float64) {
	if d.pdf.GetY()+h > pageH-bottom {
		d.pdf.AddPage()
	}
}

func (d *doc) section(title string) {
	d.ensure(20)
	d.pdf.Ln(4)
	d.pdf.SetFont("Helvetica", "B", 14)
	d.textColor("#2E3440")
	d.fillColor("#F9FAFB")
	d.drawColor("#E5E7EB")
	d.pdf.CellFormat(0, 9, d.tr(title), "1", 1, "L", true, 0, "")
	d.pdf.Ln(3)
}

func (d *doc) subheading(title string) {
	d.ensure(12)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.textColor("#374151")
	d.pdf.CellFormat(0, 7, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

func (d *doc) paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.textColor("#4B5563")
	d.pdf.MultiCell(0, 5, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

// highlight draws text in a shaded, bordered box.
func (d *doc) highlight(lines []string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.textColor("#1F2937")
	d.fillColor("#F3F4F6")
	d.drawColor("#D1D5DB")
	d.pdf.MultiCell(0, 5.5, d.tr(strings.Join(lines, "\n")), "1", "L", true)
	d.pdf.Ln(3)
}

func (d *doc) bullets(items []string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.textColor("#4B5563")
	for _, it := range items {
		d.pdf.MultiCell(0, 5, d.tr("- "+it), "", "L", false)
	}
	d.pdf.Ln(2)
}

// box is one tile of a metrics row.
type box struct {
	title string
	value string
	note  string
	bg    string
	color string
}

// metricRow draws tiles side by side.
func (d *doc) metricRow(tiles ...box) {
	const h = 28.0
	d.ensure(h + 4)
	gap := 6.0
	w := (contentW - gap*float64(len(tiles)-1)) / float64(len(tiles))
	y := d.pdf.GetY()
	for i, t := range tiles {
		x := margin + float64(i)*(w+gap)
		d.fillColor(t.bg)
		d.drawColor("#E5E7EB")
		d.pdf.Rect(x, y, w, h, "FD")

		d.pdf.SetXY(x, y+3)
		d.pdf.SetFont("Helvetica", "B", 11)
		d.textColor("#1F2937")
		d.pdf.CellFormat(w, 6, d.tr(t.title), "", 2, "C", false, 0, "")

		d.pdf.SetFont("Helvetica", "B", 18)
		c := t.color
		if c == "" {
			c = "#1F2937"
		}
		d.textColor(c)
		d.pdf.CellFormat(w, 10, d.tr(t.value), "", 2, "C", false, 0, "")

		d.pdf.SetFont("Helvetica", "", 9)
		d.textColor("#4B5563")
		d.pdf.CellFormat(w, 5, d.tr(t.note), "", 0, "C", false, 0, "")
	}
	d.pdf.SetXY(margin, y+h+4)
}

// table draws a header row and body rows with the given column widths.
func (d *doc) table(widths []float64, header []string, rows [][]string) {
	d.ensure(8 * float64(min(len(rows)+1, 6)))
	d.pdf.SetFont("Helvetica", "B", 10)
	d.fillColor("#2E3440")
	d.textColor("#FFFFFF")
	d.drawColor("#D1D5DB")
	for i, h := range header {
		d.pdf.CellFormat(widths[i], 8, d.tr(h), "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Helvetica", "", 9)
	d.textColor("#1F2937")
	for r, row := range rows {
		if r%2 == 0 {
			d.fillColor("#FFFFFF")
		} else {
			d.fillColor("#F9FAFB")
		}
		for i, cell := range row {
			align := "C"
			if i == 0 {
				align = "L"
			}
			d.pdf.CellFormat(widths[i], 7, d.tr(cell), "1", 0, align, true, 0, "")
		}
		d.pdf.Ln(-1)
	}
	d.pdf.Ln(2)
}

// imageType maps decoded image formats to fpdf image types.
func imageType(b []byte) (string, float64, bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil || cfg.Width == 0 {
		return "", 0, false
	}
	ratio := float64(cfg.Height) / float64(cfg.Width)
	switch format {
	case "png":
		return "PNG", ratio, true
	case "jpeg":
		return "JPG", ratio, true
	case "gif":
		return "GIF", ratio, true
	}
	return "", 0, false
}

// image places b at x with width w, keeping its aspect ratio. When y is
// negative the image flows at the cursor and the cursor moves below it.
// It reports false for undecodable images.
func (d *doc) image(b []byte, x, y, w float64) bool {
	typ, ratio, ok := imageType(b)
	if !ok {
		return false
	}
	h := w * ratio
	flow := y < 0
	if flow {
		d.ensure(h + 2)
		y = d.pdf.GetY()
	}
	d.images++
	name := fmt.Sprintf("img%d", d.images)
	opts := fpdf.ImageOptions{ImageType: typ}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(b))
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if flow {
		d.pdf.SetY(y + h + 2)
	}
	return true
}

// header draws the logos, titles and the report info line.
func (d *doc) header(brandLogo, schoolLogo []byte, title, subtitle, school, info string) {
	const logoW = 24.0
	top := d.pdf.GetY()
	if len(brandLogo) > 0 && !d.image(brandLogo, margin, top, logoW) {
		zap.L().Warn("report: unreadable brand logo")
	}
	if len(schoolLogo) > 0 && !d.image(schoolLogo, pageW-margin-logoW, top, logoW) {
		zap.L().Warn("report: unreadable school logo")
	}

	d.pdf.SetXY(margin+logoW, top+2)
	inner := contentW - 2*logoW
	d.pdf.SetFont("Helvetica", "B", 20)
	d.textColor("#2E3440")
	d.pdf.CellFormat(inner, 10, d.tr(title), "", 2, "C", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 14)
	d.textColor("#5E81AC")
	d.pdf.CellFormat(inner, 8, d.tr(subtitle), "", 2, "C", false, 0, "")
	d.pdf.SetFont("Helvetica", "B", 13)
	d.textColor("#2E3440")
	d.pdf.CellFormat(inner, 8, d.tr(school), "", 1, "C", false, 0, "")

	y := max(d.pdf.GetY(), top+logoW) + 2
	d.drawColor("#E5E7EB")
	d.pdf.SetLineWidth(0.6)
	d.pdf.Line(margin, y, pageW-margin, y)
	d.pdf.SetLineWidth(0.2)
	d.pdf.SetXY(margin, y+2)
	d.pdf.SetFont("Helvetica", "", 9)
	d.textColor("#666666")
	d.pdf.CellFormat(0, 5, d.tr(info), "", 1, "R", false, 0, "")
	d.pdf.Ln(4)
}

func (d *doc) closing(text string) {
	d.pdf.Ln(6)
	d.pdf.SetFont("Helvetica", "", 8)
	d.textColor("#6B7280")
	d.pdf.MultiCell(0, 4, d.tr(text), "", "C", false)
}
