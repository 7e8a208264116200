package chart

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
)

// Pie draws a share-of-total pie with a legend. Slices above 1% carry a
// percentage label.
func Pie(title string, labels []string, counts []int) ([]byte, error) {
	if len(labels) != len(counts) {
		return nil, eris.Errorf("chart: %d labels for %d counts", len(labels), len(counts))
	}
	total := 0
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	if total == 0 {
		return nil, ErrNoData
	}
	ff, err := loadFaces()
	if err != nil {
		return nil, err
	}
	const w, h = 640, 420
	dc := newCanvas(w, h, title, ff)

	cx, cy, r := 200.0, 225.0, 160.0
	angle := -math.Pi / 2
	colors := make([]string, len(labels))
	for i, c := range counts {
		colors[i] = Palette[i%len(Palette)]
		if c <= 0 {
			continue
		}
		share := float64(c) / float64(total)
		next := angle + share*2*math.Pi
		dc.SetHexColor(colors[i])
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, r, angle, next)
		dc.ClosePath()
		dc.Fill()

		if share*100 > 1 {
			mid := (angle + next) / 2
			dc.SetFontFace(ff.small)
			dc.SetHexColor("#FFFFFF")
			dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", share*100),
				cx+math.Cos(mid)*r*0.65, cy+math.Sin(mid)*r*0.65, 0.5, 0.5)
		}
		angle = next
	}
	drawLegend(dc, 400, 70, labels, colors, ff)
	return encode(dc)
}

func drawLegend(dc *gg.Context, x, y float64, names, colors []string, ff faces) {
	dc.SetFontFace(ff.small)
	for i, n := range names {
		row := y + float64(i)*20
		dc.SetHexColor(colors[i])
		dc.DrawRectangle(x, row, 12, 12)
		dc.Fill()
		dc.SetHexColor("#374151")
		dc.DrawStringAnchored(n, x+18, row+6, 0, 0.5)
	}
}
