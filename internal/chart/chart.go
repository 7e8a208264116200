// Package chart renders the dashboard and report charts as PNG images.
package chart

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/rotisserie/eris"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = eris.New("chart: no data")

// Palette is the default colour sequence for categorical series.
var Palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// LevelColors colours the response levels of a stacked breakdown.
var LevelColors = map[string]string{
	"Agree":    "#4CAF50",
	"Neutral":  "#FFC107",
	"Disagree": "#F44336",
	"Unknown":  "#9E9E9E",
}

// Options sizes and labels a chart. Zero values pick defaults.
type Options struct {
	Width  int
	Height int
	XLabel string
	YLabel string
	// YMax fixes the top of the value axis. Zero scales to the data.
	YMax float64
	// Notes are drawn under each bar's value label, e.g. "N=12".
	Notes []string
}

func (o Options) size(w, h int) (int, int) {
	if o.Width > 0 {
		w = o.Width
	}
	if o.Height > 0 {
		h = o.Height
	}
	return w, h
}

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

// face returns a new face at size points. Faces cache glyphs and are not
// safe for concurrent use, so each render gets its own.
func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, eris.Wrap(fontErr, "chart: parse font")
	}
	return truetype.NewFace(fontTTF, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}), nil
}

type faces struct {
	title, label, small font.Face
}

func loadFaces() (faces, error) {
	var f faces
	var err error
	if f.title, err = face(16); err != nil {
		return f, err
	}
	if f.label, err = face(12); err != nil {
		return f, err
	}
	f.small, err = face(10)
	return f, err
}

func newCanvas(w, h int, title string, ff faces) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()
	dc.SetFontFace(ff.title)
	dc.SetHexColor("#2E3440")
	dc.DrawStringAnchored(title, float64(w)/2, 24, 0.5, 0.5)
	return dc
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, eris.Wrap(err, "chart: encode png")
	}
	return buf.Bytes(), nil
}

// plot is the drawing rectangle inside the axes.
type plot struct {
	left, top, right, bottom float64
}

func (p plot) width() float64  { return p.right - p.left }
func (p plot) height() float64 { return p.bottom - p.top }

func (p plot) y(v, ymax float64) float64 {
	return p.bottom - v/ymax*p.height()
}

// niceMax rounds v up to a tidy axis limit.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	step := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*step >= v {
			return m * step
		}
	}
	return 10 * step
}

func drawAxes(dc *gg.Context, p plot, ymax float64, opts Options, ff faces, yFormat string) {
	dc.SetFontFace(ff.small)
	dc.SetLineWidth(1)
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := ymax * float64(i) / ticks
		y := p.y(v, ymax)
		dc.SetHexColor("#E5E7EB")
		dc.DrawLine(p.left, y, p.right, y)
		dc.Stroke()
		dc.SetHexColor("#4B5563")
		dc.DrawStringAnchored(fmt.Sprintf(yFormat, v), p.left-6, y, 1, 0.5)
	}
	dc.SetHexColor("#4B5563")
	dc.DrawLine(p.left, p.bottom, p.right, p.bottom)
	dc.Stroke()

	dc.SetFontFace(ff.label)
	if opts.XLabel != "" {
		dc.DrawStringAnchored(opts.XLabel, (p.left+p.right)/2, p.bottom+52, 0.5, 0.5)
	}
	if opts.YLabel != "" {
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), 16, (p.top+p.bottom)/2)
		dc.DrawStringAnchored(opts.YLabel, 16, (p.top+p.bottom)/2, 0.5, 0.5)
		dc.Pop()
	}
}

func drawCategoryLabels(dc *gg.Context, p plot, labels []string, ff faces) {
	dc.SetFontFace(ff.small)
	dc.SetHexColor("#374151")
	slot := p.width() / float64(len(labels))
	rotate := len(labels) > 3
	for i, l := range labels {
		x := p.left + slot*(float64(i)+0.5)
		y := p.bottom + 14
		if rotate {
			dc.Push()
			dc.RotateAbout(gg.Radians(-45), x, y)
			dc.DrawStringAnchored(l, x, y, 1, 0.5)
			dc.Pop()
			continue
		}
		dc.DrawStringAnchored(l, x, y, 0.5, 0.5)
	}
}
