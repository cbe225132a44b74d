package plot

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"
)

// SVG writes the figure as a standalone vector image. Heatmap cells become
// rects, a line becomes one path.
func SVG(w io.Writer, f *Figure, width, height int) error {
	if width < marginLeft+marginRight+10 || height < marginTop+marginBottom+10 {
		return fmt.Errorf("plot: image %dx%d is too small", width, height)
	}
	if f.Empty() {
		return ErrEmpty
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<text x="%d" y="18" font-family="sans-serif" font-size="13" fill="#222233">%s</text>
`, width, height, width, height, marginLeft, html.EscapeString(f.Title)))

	pw := width - marginLeft - marginRight
	ph := height - marginTop - marginBottom

	switch f.Kind {
	case Heatmap:
		heatmapSVG(&sb, f, pw, ph)
	case Line:
		lineSVG(&sb, f, pw, ph)
	case Histogram:
		histogramSVG(&sb, f, pw, ph)
	case Scalar:
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-family="sans-serif" font-size="28" fill="#21908d">%.4g</text>
`, marginLeft, marginTop+ph/2, f.Values[0]))
	default:
		return fmt.Errorf("%w: %v", ErrKind, f.Kind)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func heatmapSVG(sb *strings.Builder, f *Figure, pw, ph int) {
	ny := len(f.Z)
	nx := len(f.Z[0])
	cw := float64(pw) / float64(nx)
	ch := float64(ph) / float64(ny)

	sb.WriteString(`<g shape-rendering="crispEdges">` + "\n")
	for j, row := range f.Z {
		// row 0 at the bottom
		y := float64(marginTop) + float64(ny-1-j)*ch
		for i, v := range row {
			fill := missingColor
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				fill = HexAt(f.norm(v))
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>
`, float64(marginLeft)+float64(i)*cw, y, cw, ch, fill))
		}
	}
	sb.WriteString("</g>\n")

	// colorbar
	bx := marginLeft + pw + 16
	steps := 32
	sh := float64(ph) / float64(steps)
	for k := 0; k < steps; k++ {
		t := 1 - (float64(k)+0.5)/float64(steps)
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.2f" width="%d" height="%.2f" fill="%s"/>
`, bx, float64(marginTop)+float64(k)*sh, barWidth, sh+0.5, HexAt(t)))
	}
	writeLabel(sb, bx+barWidth+4, marginTop+10, fmt.Sprintf("%.3g", f.Max))
	writeLabel(sb, bx+barWidth+4, marginTop+ph, fmt.Sprintf("%.3g", f.Min))
	writeAxes(sb, f, pw, ph)
}

func lineSVG(sb *strings.Builder, f *Figure, pw, ph int) {
	xs, ys := f.Points()
	minX, maxX := finiteRange(xs)
	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}
	lo, hi := f.Min, f.Max
	rangeY := hi - lo
	if rangeY == 0 {
		rangeY = 1
	}
	lo -= rangeY * 0.05
	rangeY *= 1.1

	sb.WriteString(`<path fill="none" stroke="#21908d" stroke-width="1.5" d="M`)
	for i := range xs {
		x := float64(marginLeft) + (xs[i]-minX)/rangeX*float64(pw)
		y := float64(marginTop+ph) - (ys[i]-lo)/rangeY*float64(ph)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(`"/>` + "\n")
	writeLabel(sb, 4, marginTop+10, fmt.Sprintf("%.3g", f.Max))
	writeLabel(sb, 4, marginTop+ph, fmt.Sprintf("%.3g", f.Min))
	writeAxes(sb, f, pw, ph)
}

func histogramSVG(sb *strings.Builder, f *Figure, pw, ph int) {
	_, counts := f.Histogram()
	peak := 1
	for _, c := range counts {
		peak = max(peak, c)
	}
	bw := float64(pw) / float64(len(counts))
	for i, c := range counts {
		h := float64(c) / float64(peak) * float64(ph)
		sb.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#3b518b"/>
`, float64(marginLeft)+float64(i)*bw+1, float64(marginTop+ph)-h, bw-2, h))
	}
	writeLabel(sb, 4, marginTop+10, fmt.Sprintf("%d", peak))
	writeAxes(sb, f, pw, ph)
}

func writeAxes(sb *strings.Builder, f *Figure, pw, ph int) {
	sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="#888899" points="%d,%d %d,%d %d,%d"/>
`, marginLeft, marginTop, marginLeft, marginTop+ph, marginLeft+pw, marginTop+ph))
	writeLabel(sb, marginLeft+pw/2, marginTop+ph+20, f.XLabel)
	writeLabel(sb, 4, marginTop+ph/2, f.YLabel)
}

func writeLabel(sb *strings.Builder, x, y int, text string) {
	if text == "" {
		return
	}
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="#222233">%s</text>
`, x, y, html.EscapeString(text)))
}
