// Package plot renders dashboard figures as PNG images for the browser and
// as styled text for the terminal.
package plot

import (
	"errors"
	"math"
)

var (
	ErrEmpty   = errors.New("plot: no finite values to draw")
	ErrKind    = errors.New("plot: unsupported figure kind")
	ErrBadGrid = errors.New("plot: heatmap rows have different lengths")
)

type Kind int

const (
	Scalar Kind = iota
	Line
	Heatmap
	Histogram
)

func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Heatmap:
		return "heatmap"
	case Histogram:
		return "histogram"
	default:
		return "scalar"
	}
}

// DefaultBins is the histogram bin count used when none is given.
const DefaultBins = 20

// Figure is a renderer-independent description of one plot.
//
// For a heatmap Z[j][i] is the cell at Y[j], X[i]. Both axes ascend, so row 0
// is drawn at the bottom and column 0 at the left. Min and Max span the finite
// values and set the colour range.
type Figure struct {
	Kind   Kind
	Title  string
	XLabel string
	YLabel string

	X, Y   []float64
	Z      [][]float64
	Values []float64
	Bins   int

	Min, Max float64
}

// NewLine plots y against x. A nil x plots against the index.
func NewLine(title, xlabel, ylabel string, x, y []float64) *Figure {
	if x == nil {
		x = indexAxis(len(y))
	}
	f := &Figure{Kind: Line, Title: title, XLabel: xlabel, YLabel: ylabel, X: x, Y: y}
	f.Min, f.Max = finiteRange(y)
	return f
}

// NewHeatmap shades z on the x/y axes. Nil axes fall back to indices. A
// descending axis, such as latitude stored north to south, is flipped along
// with z so larger coordinates end up at the top and right. The caller's
// slices are not modified.
func NewHeatmap(title, xlabel, ylabel string, x, y []float64, z [][]float64) (*Figure, error) {
	for _, row := range z {
		if len(row) != len(z[0]) {
			return nil, ErrBadGrid
		}
	}
	if y == nil || len(y) != len(z) {
		y = indexAxis(len(z))
	}
	nx := 0
	if len(z) > 0 {
		nx = len(z[0])
	}
	if x == nil || len(x) != nx {
		x = indexAxis(nx)
	}
	if descending(y) {
		y = reversed(y)
		flipped := make([][]float64, len(z))
		for j, row := range z {
			flipped[len(z)-1-j] = row
		}
		z = flipped
	}
	if descending(x) {
		x = reversed(x)
		flipped := make([][]float64, len(z))
		for j, row := range z {
			flipped[j] = reversed(row)
		}
		z = flipped
	}
	f := &Figure{Kind: Heatmap, Title: title, XLabel: xlabel, YLabel: ylabel, X: x, Y: y, Z: z}
	f.Min = math.Inf(1)
	f.Max = math.Inf(-1)
	for _, row := range z {
		lo, hi := finiteRange(row)
		if !math.IsNaN(lo) {
			f.Min = math.Min(f.Min, lo)
			f.Max = math.Max(f.Max, hi)
		}
	}
	if math.IsInf(f.Min, 1) {
		f.Min, f.Max = math.NaN(), math.NaN()
	}
	return f, nil
}

// descending reports whether a has at least two values and strictly
// decreases.
func descending(a []float64) bool {
	if len(a) < 2 {
		return false
	}
	for i := 1; i < len(a); i++ {
		if !(a[i] < a[i-1]) {
			return false
		}
	}
	return true
}

func reversed(a []float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[len(a)-1-i] = v
	}
	return out
}

// NewHistogram bins values, the fallback for data with more than two
// dimensions.
func NewHistogram(title, label string, values []float64) *Figure {
	f := &Figure{Kind: Histogram, Title: title, XLabel: label, YLabel: "count", Values: values, Bins: DefaultBins}
	f.Min, f.Max = finiteRange(values)
	return f
}

// NewScalar wraps a zero-dimensional value.
func NewScalar(title string, v float64) *Figure {
	return &Figure{Kind: Scalar, Title: title, Values: []float64{v}, Min: v, Max: v}
}

// Empty reports whether the figure has nothing finite to show.
func (f *Figure) Empty() bool {
	return math.IsNaN(f.Min) || math.IsNaN(f.Max)
}

// Histogram returns bin edges (len n+1) and counts over the finite values.
func (f *Figure) Histogram() ([]float64, []int) {
	n := f.Bins
	if n <= 0 {
		n = DefaultBins
	}
	edges := make([]float64, n+1)
	counts := make([]int, n)
	if f.Empty() {
		return edges, counts
	}
	lo, hi := f.Min, f.Max
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	for _, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		b := int((v - lo) / width)
		if b >= n {
			b = n - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	return edges, counts
}

// Points returns the x/y pairs of a line figure with non-finite y dropped.
func (f *Figure) Points() ([]float64, []float64) {
	xs := make([]float64, 0, len(f.Y))
	ys := make([]float64, 0, len(f.Y))
	for i, y := range f.Y {
		if i >= len(f.X) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		xs = append(xs, f.X[i])
		ys = append(ys, y)
	}
	return xs, ys
}

// norm maps v into [0, 1] over the figure's colour range.
func (f *Figure) norm(v float64) float64 {
	if f.Max == f.Min {
		return 0.5
	}
	t := (v - f.Min) / (f.Max - f.Min)
	return math.Max(0, math.Min(1, t))
}

func finiteRange(vals []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}

func indexAxis(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
