// Package shoreline projects linear shoreline retreat.
package shoreline

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinYears = 1
	MaxYears = 100
)

var (
	ErrNonFinite = errors.New("shoreline: erosion rate is NaN or infinite")
	ErrYears     = fmt.Errorf("shoreline: years must be within [%d, %d]", MinYears, MaxYears)
)

// Retreat is rate × years.
func Retreat(rate float64, years int) float64 {
	return rate * float64(years)
}

// Projection is the cumulative retreat at the end of each year.
type Projection struct {
	Rate    float64
	Years   int
	Total   float64
	ByYear  []float64
	YearIdx []float64
}

// Project validates the inputs and builds the yearly series.
func Project(rate float64, years int) (*Projection, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, ErrNonFinite
	}
	if years < MinYears || years > MaxYears {
		return nil, fmt.Errorf("%w: got %d", ErrYears, years)
	}

	p := &Projection{
		Rate:    rate,
		Years:   years,
		Total:   Retreat(rate, years),
		ByYear:  make([]float64, years+1),
		YearIdx: make([]float64, years+1),
	}
	for y := 0; y <= years; y++ {
		p.YearIdx[y] = float64(y)
		p.ByYear[y] = Retreat(rate, y)
	}
	return p, nil
}

func (p *Projection) Format() string {
	return fmt.Sprintf("%.2f meters", p.Total)
}
