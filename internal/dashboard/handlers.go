package dashboard

import (
	"fmt"

	"github.com/san-kum/coastkit/internal/carbonate"
	"github.com/san-kum/coastkit/internal/plot"
	"github.com/san-kum/coastkit/internal/sediment"
	"github.com/san-kum/coastkit/internal/shoreline"
	"github.com/san-kum/coastkit/internal/storage"
	"github.com/san-kum/coastkit/internal/wave"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	LoadFailed      = "Failed to load dataset"
	SedimentFailed  = "Error in sediment transport calculation"
	CarbonateFailed = "Error running CO2SYS"
	ShorelineFailed = "Error in shoreline projection"
	LoadedOK        = "Dataset loaded successfully."
)

var counts = message.NewPrinter(language.English)

// Count formats n with thousands separators.
func Count(n int64) string {
	return counts.Sprintf("%d", n)
}

// WaveRequest selects a dataset, a variable and a time step. Data, when
// set, holds an uploaded file; otherwise Path is read from disk.
type WaveRequest struct {
	Name      string
	Path      string
	Data      []byte
	Variable  string
	TimeIndex int
	TimeDim   string
}

func (r WaveRequest) open() (*wave.Dataset, error) {
	opts := wave.Options{TimeDim: r.TimeDim}
	if r.Data != nil {
		return wave.OpenBytes(r.Name, r.Data, opts)
	}
	return wave.Open(r.Path, opts)
}

// WaveInfo loads the dataset and lists its data variables and time steps
// without plotting anything.
func WaveInfo(req WaveRequest) *Panel {
	p, ds := loadWave(req)
	if ds != nil {
		ds.Close()
	}
	return p
}

// Wave loads the dataset, lists its data variables and plots one variable
// at one time step. The first data variable is used when none is chosen.
func Wave(req WaveRequest) *Panel {
	p, ds := loadWave(req)
	if ds == nil {
		return p
	}
	defer ds.Close()

	p.Variable = req.Variable
	if p.Variable == "" {
		p.Variable = p.Variables[0]
	}
	p.TimeIndex = req.TimeIndex
	p.input("time_index", float64(req.TimeIndex))

	s, err := ds.Slice(p.Variable, req.TimeIndex)
	if err != nil {
		p.fail(LoadFailed, err)
		return p
	}
	fig, err := FigureFromSlice(s, ds.TimeDim())
	if err != nil {
		p.fail(LoadFailed, err)
		return p
	}
	p.Figure = fig

	units := s.Var.Units
	p.metric("min", "Minimum", fmt.Sprintf("%.4g %s", s.Min, units), s.Min)
	p.metric("max", "Maximum", fmt.Sprintf("%.4g %s", s.Max, units), s.Max)
	p.metric("mean", "Mean", fmt.Sprintf("%.4g %s", s.Mean, units), s.Mean)
	p.metric("valid_cells", "Valid cells", Count(int64(s.Valid)), float64(s.Valid))
	if s.Valid == 0 {
		p.info(LevelWarning, fmt.Sprintf("%s has no valid values at %s %d.", p.Variable, ds.TimeDim(), req.TimeIndex))
	}
	return p
}

// loadWave returns an open dataset only when it has data variables and a
// usable time dimension.
func loadWave(req WaveRequest) (*Panel, *wave.Dataset) {
	p := newPanel(WaveModeling, "wave", "Wave Modeling")

	ds, err := req.open()
	if err != nil {
		p.fail(LoadFailed, err)
		return p, nil
	}

	p.Source = ds.Name
	p.info(LevelSuccess, LoadedOK)
	p.Variables = ds.DataVars()
	if len(p.Variables) == 0 {
		ds.Close()
		p.fail(LoadFailed, wave.ErrNoDataVars)
		return p, nil
	}

	nt, err := ds.TimeLen()
	if err != nil {
		ds.Close()
		p.fail(LoadFailed, err)
		return p, nil
	}
	p.TimeSteps = nt
	return p, ds
}

// WaveSpectrum plots the power spectrum of the spatial-mean series of the
// chosen variable.
func WaveSpectrum(req WaveRequest) *Panel {
	p := newPanel(WaveModeling, "wave", "Wave Spectrum")

	ds, err := req.open()
	if err != nil {
		p.fail(LoadFailed, err)
		return p
	}
	defer ds.Close()

	p.Source = ds.Name
	p.Variables = ds.DataVars()
	p.Variable = req.Variable
	if p.Variable == "" && len(p.Variables) > 0 {
		p.Variable = p.Variables[0]
	}

	series, err := ds.Series(p.Variable)
	if err != nil {
		p.fail(LoadFailed, err)
		return p
	}
	p.TimeSteps = len(series)
	ps, err := wave.Spectrum(series)
	if err != nil {
		p.fail(LoadFailed, err)
		return p
	}

	p.Figure = plot.NewLine(fmt.Sprintf("%s power spectrum", p.Variable), "cycles per step", "power", ps.Frequency, ps.Power)
	p.Series = &storage.Series{XName: "frequency", YName: "power", X: ps.Frequency, Y: ps.Power}
	p.metric("dominant_period", "Dominant period", fmt.Sprintf("%.2f steps", ps.DominantPeriod), ps.DominantPeriod)
	return p
}

// FigureFromSlice picks the plot type the way xarray's default plot does:
// heatmap for 2D, line for 1D, histogram above that.
func FigureFromSlice(s *wave.Slice, timeDim string) (*plot.Figure, error) {
	title := fmt.Sprintf("%s, %s = %d", s.Var.Name, timeDim, s.Index)
	label := s.Var.Label()

	switch s.Rank() {
	case 0:
		return plot.NewScalar(title, s.Values()[0]), nil
	case 1:
		return plot.NewLine(title, s.Dims[0], label, s.Coords[s.Dims[0]], s.Values()), nil
	case 2:
		grid, err := s.Grid()
		if err != nil {
			return nil, err
		}
		return plot.NewHeatmap(title, s.Dims[1], s.Dims[0], s.Coords[s.Dims[1]], s.Coords[s.Dims[0]], grid)
	}
	return plot.NewHistogram(title, label, s.Values()), nil
}

// Sediment evaluates the bedload formula.
func Sediment(in sediment.Input) *Panel {
	p := newPanel(SedimentTransport, "sediment", "Sediment Transport Calculator")
	p.input("velocity", in.Velocity)
	p.input("d50", in.D50)

	res, err := sediment.Bedload(in)
	if err != nil {
		p.fail(SedimentFailed, err)
		return p
	}

	p.metric("transport_rate", "Sediment Transport Rate", res.Format(), res.Rate)
	p.metric("shear_stress", "Bed shear stress", fmt.Sprintf("%.4f Pa", res.ShearStress), res.ShearStress)
	p.metric("critical_stress", "Critical shear stress", fmt.Sprintf("%.4f Pa", res.CriticalStress), res.CriticalStress)
	if !res.Mobile {
		p.info(LevelWarning, "Bed shear stress is below the threshold of motion; no bedload transport.")
	}
	return p
}

// Carbonate solves the carbonate system for aragonite saturation.
func Carbonate(in carbonate.Input) *Panel {
	p := newPanel(ShorelineChange, "carbonate", "Carbonate Chemistry")
	p.input("alkalinity", in.Alkalinity)
	p.input("dic", in.DIC)
	p.input("temperature", in.Temperature)
	p.input("salinity", in.Salinity)

	res, err := carbonate.Solve(in)
	if err != nil {
		p.fail(CarbonateFailed, err)
		return p
	}

	p.metric("omega_aragonite", "Ωₐ (Aragonite Saturation State)", res.FormatAragonite(), res.SaturationAragonite)
	p.metric("omega_calcite", "Ω calcite", fmt.Sprintf("%.2f", res.SaturationCalcite), res.SaturationCalcite)
	p.metric("ph_total", "pH (total scale)", fmt.Sprintf("%.4f", res.PH), res.PH)
	p.metric("carbonate", "CO₃²⁻", fmt.Sprintf("%.1f µmol/kg", res.Carbonate), res.Carbonate)
	p.metric("bicarbonate", "HCO₃⁻", fmt.Sprintf("%.1f µmol/kg", res.Bicarbonate), res.Bicarbonate)
	p.metric("co2", "CO₂*", fmt.Sprintf("%.2f µmol/kg", res.AqueousCO2), res.AqueousCO2)
	p.metric("pco2", "pCO₂", fmt.Sprintf("%.1f µatm", res.PCO2), res.PCO2)
	if res.SaturationAragonite < 1 {
		p.info(LevelWarning, "Water is undersaturated with respect to aragonite.")
	}
	return p
}

// Shoreline projects linear retreat and charts it by year.
func Shoreline(rate float64, years int) *Panel {
	p := newPanel(ShorelineChange, "shoreline", "Shoreline Erosion Projection")
	p.input("rate", rate)
	p.input("years", float64(years))

	proj, err := shoreline.Project(rate, years)
	if err != nil {
		p.fail(ShorelineFailed, err)
		return p
	}

	p.metric("retreat_m", "Projected Shoreline Retreat", proj.Format(), proj.Total)
	p.Figure = plot.NewLine("Projected shoreline retreat", "year", "retreat [m]", proj.YearIdx, proj.ByYear)
	p.Series = &storage.Series{XName: "year", YName: "retreat_m", X: proj.YearIdx, Y: proj.ByYear}
	return p
}

// ShorelinePage is the full third module: the carbonate lookup followed by
// the erosion projection. A carbonate failure does not hide the projection.
func ShorelinePage(in carbonate.Input, rate float64, years int) *Panel {
	p := newPanel(ShorelineChange, "shoreline", ShorelineChange.String())
	p.merge(Carbonate(in))
	p.merge(Shoreline(rate, years))
	return p
}
