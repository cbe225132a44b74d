package plot

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// viridis sampled at nine evenly spaced stops.
var viridis = []string{
	"#440154", "#472c7a", "#3b518b", "#2c718e", "#21908d",
	"#27ad81", "#5cc863", "#aadc32", "#fde725",
}

// missingColor fills NaN cells.
const missingColor = "#d0d0d0"

var (
	stops   = mustHex(viridis...)
	missing = mustHex(missingColor)[0]
)

func mustHex(hex ...string) []colorful.Color {
	out := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// blend interpolates the colormap in RGB at t in [0, 1].
func blend(t float64) colorful.Color {
	if math.IsNaN(t) {
		return missing
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		i = len(stops) - 2
	}
	return stops[i].BlendRgb(stops[i+1], pos-float64(i)).Clamped()
}

// ColorAt interpolates the colormap at t in [0, 1].
func ColorAt(t float64) color.RGBA {
	r, g, b := blend(t).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// HexAt is ColorAt as a "#rrggbb" string for terminal styles.
func HexAt(t float64) string {
	return blend(t).Hex()
}
