package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	marginLeft   = 56
	marginRight  = 90
	marginTop    = 28
	marginBottom = 30
	barWidth     = 16
)

var (
	lineColor = drawing.ColorFromHex("21908d")
	barColor  = drawing.ColorFromHex("3b518b")
	textColor = color.RGBA{R: 0x22, G: 0x22, B: 0x33, A: 255}
)

// PNG writes the figure as a width x height PNG image.
func PNG(w io.Writer, f *Figure, width, height int) error {
	if width < marginLeft+marginRight+10 || height < marginTop+marginBottom+10 {
		return fmt.Errorf("plot: image %dx%d is too small", width, height)
	}
	switch f.Kind {
	case Heatmap:
		return heatmapPNG(w, f, width, height)
	case Line:
		return linePNG(w, f, width, height)
	case Histogram:
		return histogramPNG(w, f, width, height)
	case Scalar:
		return scalarPNG(w, f, width, height)
	}
	return fmt.Errorf("%w: %v", ErrKind, f.Kind)
}

// heatmapPNG rasterises the grid directly; go-chart has no image series.
func heatmapPNG(w io.Writer, f *Figure, width, height int) error {
	if f.Empty() {
		return ErrEmpty
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	ny := len(f.Z)
	nx := len(f.Z[0])
	plotW := width - marginLeft - marginRight
	plotH := height - marginTop - marginBottom

	for py := 0; py < plotH; py++ {
		// origin at the bottom
		j := ny - 1 - py*ny/plotH
		for px := 0; px < plotW; px++ {
			i := px * nx / plotW
			v := f.Z[j][i]
			c := ColorAt(math.NaN())
			if !math.IsNaN(v) {
				c = ColorAt(f.norm(v))
			}
			img.SetRGBA(marginLeft+px, marginTop+py, c)
		}
	}

	// colorbar, max at the top
	cbX := width - marginRight + 16
	for py := 0; py < plotH; py++ {
		c := ColorAt(1 - float64(py)/float64(plotH-1))
		for px := 0; px < barWidth; px++ {
			img.SetRGBA(cbX+px, marginTop+py, c)
		}
	}

	label(img, marginLeft, 18, f.Title)
	label(img, cbX+barWidth+4, marginTop+10, fmt.Sprintf("%.3g", f.Max))
	label(img, cbX+barWidth+4, marginTop+plotH, fmt.Sprintf("%.3g", f.Min))
	label(img, marginLeft, height-10, fmt.Sprintf("%s  [%.4g, %.4g]", f.XLabel, f.X[0], f.X[nx-1]))
	label(img, 4, marginTop+plotH, fmt.Sprintf("%.4g", f.Y[0]))
	label(img, 4, marginTop+10, fmt.Sprintf("%.4g", f.Y[ny-1]))
	label(img, 4, marginTop+plotH/2, f.YLabel)

	return png.Encode(w, img)
}

func linePNG(w io.Writer, f *Figure, width, height int) error {
	xs, ys := f.Points()
	if len(xs) == 0 {
		return ErrEmpty
	}
	if len(xs) == 1 {
		// a single point has no x range
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
	}
	xr := padRange(finiteRange(xs))
	yr := padRange(f.Min, f.Max)

	ch := chart.Chart{
		Title:      f.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: f.XLabel, Range: xr},
		YAxis:      chart.YAxis{Name: f.YLabel, Range: yr},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    f.Title,
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: lineColor, StrokeWidth: 2},
			},
		},
	}
	return ch.Render(chart.PNG, w)
}

func histogramPNG(w io.Writer, f *Figure, width, height int) error {
	if f.Empty() {
		return ErrEmpty
	}
	edges, counts := f.Histogram()
	bars := make([]chart.Value, len(counts))
	maxCount := 0
	for i, c := range counts {
		bars[i] = chart.Value{
			Value: float64(c),
			Label: fmt.Sprintf("%.3g", (edges[i]+edges[i+1])/2),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
		if c > maxCount {
			maxCount = c
		}
	}

	bw := (width-marginLeft-marginRight)/len(bars) - 4
	if bw < 4 {
		bw = 4
	}
	bc := chart.BarChart{
		Title:      f.Title,
		Width:      width,
		Height:     height,
		BarWidth:   bw,
		BarSpacing: 4,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Name:  f.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) + 1},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

func scalarPNG(w io.Writer, f *Figure, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	label(img, marginLeft, height/2-10, f.Title)
	label(img, marginLeft, height/2+10, fmt.Sprintf("%.6g", f.Values[0]))
	return png.Encode(w, img)
}

// padRange widens a degenerate range so the axis can be drawn.
func padRange(lo, hi float64) *chart.ContinuousRange {
	if hi <= lo {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func label(img *image.RGBA, x, y int, text string) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
