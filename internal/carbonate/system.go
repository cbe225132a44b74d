// Package carbonate solves the seawater carbonate system from total
// alkalinity and dissolved inorganic carbon and reports the saturation
// state of aragonite and calcite.
package carbonate

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNonFinite   = errors.New("carbonate: input is NaN or infinite")
	ErrAlkalinity  = errors.New("carbonate: total alkalinity must be positive")
	ErrDIC         = errors.New("carbonate: dissolved inorganic carbon must be positive")
	ErrSalinity    = errors.New("carbonate: salinity must be within [0, 50]")
	ErrTemperature = errors.New("carbonate: temperature must be within [-5, 50] °C")
	ErrNoSolution  = errors.New("carbonate: pH solver did not converge")
)

const (
	maxIterations = 100
	pHTolerance   = 1e-10
	pHLow         = 0.0
	pHHigh        = 14.0
)

// Input mirrors the four dashboard fields. Concentrations are µmol/kg.
type Input struct {
	Alkalinity  float64
	DIC         float64
	Temperature float64 // °C
	Salinity    float64
}

// Result is a subset of what CO2SYS reports. Concentrations are µmol/kg,
// partial pressures µatm.
type Result struct {
	Input
	PH                  float64 // Total scale
	Bicarbonate         float64
	Carbonate           float64
	AqueousCO2          float64
	FCO2                float64
	PCO2                float64
	SaturationAragonite float64
	SaturationCalcite   float64
	Iterations          int
	Constants           *Constants
}

// Solve runs the TA/DIC input pair through the carbonate system at zero
// applied pressure.
func Solve(in Input) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	k := NewConstants(in.Temperature, in.Salinity)
	ta := in.Alkalinity * 1e-6
	dic := in.DIC * 1e-6

	pH, iters, err := solvePH(k, ta, dic)
	if err != nil {
		return nil, err
	}

	h := math.Pow(10, -pH)
	denom := h*h + k.K1*h + k.K1*k.K2
	co3 := dic * k.K1 * k.K2 / denom
	hco3 := dic * k.K1 * h / denom
	co2 := dic * h * h / denom

	fco2 := co2 / k.K0 * 1e6
	res := &Result{
		Input:               in,
		PH:                  pH,
		Bicarbonate:         hco3 * 1e6,
		Carbonate:           co3 * 1e6,
		AqueousCO2:          co2 * 1e6,
		FCO2:                fco2,
		PCO2:                fco2 / k.FugacityFactor(),
		SaturationAragonite: k.Calcium * co3 / k.KspAragonite,
		SaturationCalcite:   k.Calcium * co3 / k.KspCalcite,
		Iterations:          iters,
		Constants:           k,
	}
	return res, nil
}

func (in Input) validate() error {
	for _, v := range []float64{in.Alkalinity, in.DIC, in.Temperature, in.Salinity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	switch {
	case in.Alkalinity <= 0:
		return fmt.Errorf("%w: got %g", ErrAlkalinity, in.Alkalinity)
	case in.DIC <= 0:
		return fmt.Errorf("%w: got %g", ErrDIC, in.DIC)
	case in.Salinity < 0 || in.Salinity > 50:
		return fmt.Errorf("%w: got %g", ErrSalinity, in.Salinity)
	case in.Temperature < -5 || in.Temperature > 50:
		return fmt.Errorf("%w: got %g", ErrTemperature, in.Temperature)
	}
	return nil
}

// alkalinity returns the modelled total alkalinity (mol/kg) at hydrogen ion
// concentration h and its derivative with respect to h.
func alkalinity(k *Constants, dic, h float64) (float64, float64) {
	denom := h*h + k.K1*h + k.K1*k.K2
	carb := dic * k.K1 * (h + 2*k.K2) / denom
	dCarb := dic * k.K1 * (denom - (h+2*k.K2)*(2*h+k.K1)) / (denom * denom)

	borate := k.TotalBorate * k.KB / (k.KB + h)
	dBorate := -k.TotalBorate * k.KB / ((k.KB + h) * (k.KB + h))

	oh := k.KW / h
	dOH := -k.KW / (h * h)

	hFree := h / k.FreeToTotal
	hso4 := k.TotalSulfate / (1 + k.KS/hFree)
	hf := k.TotalFluoride / (1 + k.KF/hFree)
	// d/dh of T/(1 + K*F/h) = T*K*F / (h + K*F)^2
	ksF := k.KS * k.FreeToTotal
	kfF := k.KF * k.FreeToTotal
	dHSO4 := k.TotalSulfate * ksF / ((h + ksF) * (h + ksF))
	dHF := k.TotalFluoride * kfF / ((h + kfF) * (h + kfF))

	ta := carb + borate + oh - hFree - hso4 - hf
	dta := dCarb + dBorate + dOH - 1/k.FreeToTotal - dHSO4 - dHF
	return ta, dta
}

// solvePH finds the Total-scale pH whose modelled alkalinity matches ta.
// Newton steps in pH are kept inside a shrinking bracket; a step that would
// leave the bracket falls back to bisection.
func solvePH(k *Constants, ta, dic float64) (float64, int, error) {
	lo, hi := pHLow, pHHigh
	pH := 8.0

	for i := 1; i <= maxIterations; i++ {
		h := math.Pow(10, -pH)
		model, dModel := alkalinity(k, dic, h)
		resid := model - ta

		// Modelled alkalinity decreases as pH drops.
		if resid > 0 {
			hi = pH
		} else {
			lo = pH
		}

		// dTA/dpH = dTA/dh * dh/dpH, dh/dpH = -ln(10)*h
		slope := -dModel * math.Ln10 * h
		next := pH
		if slope != 0 {
			next = pH - resid/slope
		}
		if slope == 0 || next <= lo || next >= hi || math.IsNaN(next) {
			next = (lo + hi) / 2
		}

		if math.Abs(next-pH) < pHTolerance {
			return next, i, nil
		}
		pH = next
	}
	return 0, maxIterations, ErrNoSolution
}

// FormatAragonite renders Ωₐ the way the dashboard shows it.
func (r *Result) FormatAragonite() string {
	return fmt.Sprintf("%.2f", r.SaturationAragonite)
}
