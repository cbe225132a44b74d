// Package sediment evaluates an excess-shear bedload transport formula.
package sediment

import (
	"errors"
	"fmt"
	"math"
)

const (
	// SeawaterDensity in kg/m³.
	SeawaterDensity = 1025.0
	// Gravity in m/s².
	Gravity = 9.81
	// CriticalShields is the threshold coefficient applied to rho*g*d.
	CriticalShields = 0.047
	// TransportCoefficient scales the excess shear term.
	TransportCoefficient = 8.0
	// TransportExponent applies to the excess shear term.
	TransportExponent = 1.5
)

var (
	ErrNonFinite = errors.New("sediment: input is NaN or infinite")
	ErrGrainSize = errors.New("sediment: grain size must be positive")
	ErrRate      = errors.New("sediment: transport rate is not finite")
)

// Input holds the two scalar form values.
type Input struct {
	Velocity float64 // m/s
	D50      float64 // mm
}

type Result struct {
	Input
	GrainSizeM     float64 // D50 in meters
	ShearStress    float64 // tau
	CriticalStress float64 // tau_cr
	Rate           float64 // qs in m³/s/m
	Mobile         bool
}

// ShearStress is rho*g*d*u with d in meters.
func ShearStress(u, d50m float64) float64 {
	return SeawaterDensity * Gravity * d50m * u
}

// CriticalStress is the threshold shear for grain motion.
func CriticalStress(d50m float64) float64 {
	return CriticalShields * SeawaterDensity * Gravity * d50m
}

// Bedload computes qs = 8*(tau - tau_cr)^1.5. Below threshold the bed is
// immobile and the rate is zero.
func Bedload(in Input) (*Result, error) {
	if !finite(in.Velocity) || !finite(in.D50) {
		return nil, ErrNonFinite
	}
	if in.D50 <= 0 {
		return nil, fmt.Errorf("%w: got %g mm", ErrGrainSize, in.D50)
	}

	d := in.D50 / 1000
	res := &Result{
		Input:          in,
		GrainSizeM:     d,
		ShearStress:    ShearStress(in.Velocity, d),
		CriticalStress: CriticalStress(d),
	}

	excess := res.ShearStress - res.CriticalStress
	if excess <= 0 {
		return res, nil
	}

	res.Rate = TransportCoefficient * math.Pow(excess, TransportExponent)
	if !finite(res.Rate) {
		return nil, ErrRate
	}
	res.Mobile = true
	return res, nil
}

// Format renders the rate the way the dashboard shows it.
func (r *Result) Format() string {
	return fmt.Sprintf("%.4f m³/s/m", r.Rate)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
