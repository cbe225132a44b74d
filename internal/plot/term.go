package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Terminal renders the figure for a terminal of roughly width x height
// cells.
func Terminal(f *Figure, width, height int) string {
	if f.Kind != Scalar && f.Empty() {
		return Warning.Render("nothing to plot: all values are missing")
	}
	switch f.Kind {
	case Heatmap:
		return TermHeatmap(f, width, height)
	case Line:
		return TermLine(f, width, height)
	case Histogram:
		return TermHistogram(f, width, height)
	}
	return Metric(f.Title, fmt.Sprintf("%.6g", f.Values[0]))
}

// TermHeatmap shades each terminal cell with the mean of the grid cells it
// covers. Each cell is two columns wide so cells come out roughly square.
func TermHeatmap(f *Figure, width, height int) string {
	ny := len(f.Z)
	nx := len(f.Z[0])
	cols := min(nx, max(1, width/2))
	rows := min(ny, max(1, height))

	var b strings.Builder
	b.WriteString(Title.Render(f.Title) + "\n")
	for r := rows - 1; r >= 0; r-- {
		j0, j1 := r*ny/rows, (r+1)*ny/rows
		for c := 0; c < cols; c++ {
			i0, i1 := c*nx/cols, (c+1)*nx/cols
			v := blockMean(f.Z, j0, j1, i0, i1)
			hex := missingColor
			if !math.IsNaN(v) {
				hex = HexAt(f.norm(v))
			}
			b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  "))
		}
		b.WriteString("\n")
	}
	b.WriteString(colorbar(f, min(cols*2, 40)))
	return b.String()
}

func colorbar(f *Figure, width int) string {
	var b strings.Builder
	b.WriteString(MetricLabel.Render(fmt.Sprintf("%.3g ", f.Min)))
	for i := 0; i < width; i++ {
		t := float64(i) / float64(max(1, width-1))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(HexAt(t))).Render("█"))
	}
	b.WriteString(MetricLabel.Render(fmt.Sprintf(" %.3g", f.Max)))
	return b.String()
}

func blockMean(z [][]float64, j0, j1, i0, i1 int) float64 {
	sum, n := 0.0, 0
	for j := j0; j < max(j1, j0+1); j++ {
		for i := i0; i < max(i1, i0+1); i++ {
			if v := z[j][i]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// TermLine plots the y values with asciigraph.
func TermLine(f *Figure, width, height int) string {
	_, ys := f.Points()
	caption := f.Title
	if f.XLabel != "" {
		caption = fmt.Sprintf("%s vs %s", f.Title, f.XLabel)
	}
	return Series(ys, width, height, caption)
}

// Series is a bare asciigraph plot.
func Series(ys []float64, width, height int, caption string) string {
	if len(ys) == 0 {
		return Warning.Render("nothing to plot")
	}
	if len(ys) == 1 {
		ys = []float64{ys[0], ys[0]}
	}
	return asciigraph.Plot(ys,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// TermHistogram draws one horizontal bar per bin.
func TermHistogram(f *Figure, width, height int) string {
	edges, counts := f.Histogram()
	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c)
	}
	barMax := max(10, width-24)

	var b strings.Builder
	b.WriteString(Title.Render(f.Title) + "\n")
	for i, c := range counts {
		n := 0
		if maxCount > 0 {
			n = c * barMax / maxCount
		}
		t := float64(i) / float64(max(1, len(counts)-1))
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(HexAt(t))).Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%10.3g │%s %d\n", (edges[i]+edges[i+1])/2, bar, c)
	}
	b.WriteString(KeyHint.Render(fmt.Sprintf("%s, %d values", f.XLabel, len(f.Values))))
	return b.String()
}
