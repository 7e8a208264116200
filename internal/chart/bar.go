package chart

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Bar draws one bar per label, labelled with its value to two decimals.
func Bar(title string, labels []string, values []float64, opts Options) ([]byte, error) {
	if len(labels) == 0 {
		return nil, ErrNoData
	}
	if len(labels) != len(values) {
		return nil, eris.Errorf("chart: %d labels for %d values", len(labels), len(values))
	}
	ff, err := loadFaces()
	if err != nil {
		return nil, err
	}
	w, h := opts.size(800, 520)
	dc := newCanvas(w, h, title, ff)

	ymax := opts.YMax
	if ymax <= 0 {
		top := 0.0
		for _, v := range values {
			if v > top {
				top = v
			}
		}
		ymax = niceMax(top + 0.5)
	}
	p := plot{left: 70, top: 56, right: float64(w) - 24, bottom: float64(h) - 80}
	drawAxes(dc, p, ymax, opts, ff, "%.1f")

	slot := p.width() / float64(len(values))
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		x := p.left + slot*float64(i) + slot*0.2
		y := p.y(min(v, ymax), ymax)
		dc.SetHexColor(Palette[i%len(Palette)])
		dc.DrawRectangle(x, y, slot*0.6, p.bottom-y)
		dc.Fill()

		dc.SetFontFace(ff.small)
		dc.SetHexColor("#111827")
		cx := x + slot*0.3
		label := fmt.Sprintf("%.2f", values[i])
		if i < len(opts.Notes) && opts.Notes[i] != "" {
			dc.DrawStringAnchored("("+opts.Notes[i]+")", cx, y-6, 0.5, 0)
			dc.DrawStringAnchored(label, cx, y-20, 0.5, 0)
		} else {
			dc.DrawStringAnchored(label, cx, y-6, 0.5, 0)
		}
	}
	drawCategoryLabels(dc, p, labels, ff)
	return encode(dc)
}

// Series is one stacked layer: a value per group.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// Stacked draws percentage bars per group, one layer per series, with a
// legend. Segments above 5% are labelled.
func Stacked(title string, groups []string, series []Series, opts Options) ([]byte, error) {
	if len(groups) == 0 || len(series) == 0 {
		return nil, ErrNoData
	}
	for _, s := range series {
		if len(s.Values) != len(groups) {
			return nil, eris.Errorf("chart: series %q has %d values for %d groups", s.Name, len(s.Values), len(groups))
		}
	}
	ff, err := loadFaces()
	if err != nil {
		return nil, err
	}
	w, h := opts.size(860, 520)
	dc := newCanvas(w, h, title, ff)

	ymax := opts.YMax
	if ymax <= 0 {
		ymax = 100
	}
	p := plot{left: 70, top: 56, right: float64(w) - 150, bottom: float64(h) - 80}
	drawAxes(dc, p, ymax, opts, ff, "%.0f")

	slot := p.width() / float64(len(groups))
	for g := range groups {
		base := 0.0
		x := p.left + slot*float64(g) + slot*0.2
		for i, s := range series {
			v := s.Values[g]
			if v <= 0 {
				continue
			}
			y0 := p.y(min(base, ymax), ymax)
			y1 := p.y(min(base+v, ymax), ymax)
			dc.SetHexColor(seriesColor(s, i))
			dc.DrawRectangle(x, y1, slot*0.6, y0-y1)
			dc.Fill()
			if v > 5 {
				dc.SetFontFace(ff.small)
				dc.SetHexColor("#111827")
				dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", v), x+slot*0.3, (y0+y1)/2, 0.5, 0.5)
			}
			base += v
		}
	}
	drawCategoryLabels(dc, p, groups, ff)

	names := make([]string, len(series))
	colors := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
		colors[i] = seriesColor(s, i)
	}
	drawLegend(dc, p.right+20, p.top, names, colors, ff)
	return encode(dc)
}

func seriesColor(s Series, i int) string {
	if s.Color != "" {
		return s.Color
	}
	return Palette[i%len(Palette)]
}
