package wave

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// SampleFill marks land cells in generated datasets.
const SampleFill = -999

// SampleOptions size the demo dataset.
type SampleOptions struct {
	Steps  int     // time steps, hourly
	Lat    int
	Lon    int
	Period float64 // swell period in time steps

	// Unlimited declares time as the record dimension, the layout most
	// ocean models write.
	Unlimited bool
	// Station adds a char variable holding this name.
	Station string
}

// DefaultSampleOptions is a one-day hourly grid with a six-hour swell.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{Steps: 24, Lat: 12, Lon: 16, Period: 6}
}

// WriteSample writes a small synthetic wave-model output file: significant
// wave height, packed peak period and a static depth field on a lat/lon
// grid. The south-west corner is land and holds the fill value.
func WriteSample(path string, opts SampleOptions) error {
	if err := checkExtension(path); err != nil {
		return err
	}
	if opts.Steps < 1 || opts.Lat < 1 || opts.Lon < 1 {
		return fmt.Errorf("wave: sample grid %dx%dx%d is empty", opts.Steps, opts.Lat, opts.Lon)
	}
	if opts.Period <= 0 {
		opts.Period = DefaultSampleOptions().Period
	}

	grid := []string{DefaultTimeDim, "lat", "lon"}
	dims, lens := grid, []int{opts.Steps, opts.Lat, opts.Lon}
	if opts.Unlimited {
		lens[0] = 0
	}
	if opts.Station != "" {
		dims = append(dims, "name_strlen")
		lens = append(lens, len(opts.Station))
	}
	h := cdf.NewHeader(dims, lens)
	h.AddAttribute("", "title", "coastkit synthetic wave model output")
	h.AddAttribute("", "Conventions", "CF-1.6")

	h.AddVariable(DefaultTimeDim, []string{DefaultTimeDim}, []float64{0})
	h.AddAttribute(DefaultTimeDim, "units", "hours since 2024-01-01 00:00:00")
	h.AddAttribute(DefaultTimeDim, "long_name", "time")
	h.AddVariable("lat", []string{"lat"}, []float32{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float32{0})
	h.AddAttribute("lon", "units", "degrees_east")

	h.AddVariable("hs", grid, []float32{0})
	h.AddAttribute("hs", "long_name", "significant wave height")
	h.AddAttribute("hs", "units", "m")
	h.AddAttribute("hs", "_FillValue", []float32{SampleFill})

	h.AddVariable("tp", grid, []int16{0})
	h.AddAttribute("tp", "long_name", "peak wave period")
	h.AddAttribute("tp", "units", "s")
	h.AddAttribute("tp", "scale_factor", []float32{0.01})
	h.AddAttribute("tp", "add_offset", []float32{0})
	h.AddAttribute("tp", "_FillValue", []int16{SampleFill})

	h.AddVariable("depth", []string{"lat", "lon"}, []float32{0})
	h.AddAttribute("depth", "long_name", "water depth")
	h.AddAttribute("depth", "units", "m")
	h.AddAttribute("depth", "_FillValue", []float32{SampleFill})

	if opts.Station != "" {
		h.AddVariable("station_name", []string{"name_strlen"}, []byte(opts.Station))
		h.AddAttribute("station_name", "long_name", "station name")
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	defer ff.Close()

	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("wave: writing header: %v", err)
	}

	times := make([]float64, opts.Steps)
	for i := range times {
		times[i] = float64(i)
	}
	lats := make([]float32, opts.Lat)
	for i := range lats {
		lats[i] = float32(45 + 0.25*float64(i))
	}
	lons := make([]float32, opts.Lon)
	for i := range lons {
		lons[i] = float32(-70 + 0.25*float64(i))
	}

	hs := sparse.ZerosDense(opts.Steps, opts.Lat, opts.Lon)
	tp := make([]int16, opts.Steps*opts.Lat*opts.Lon)
	depth := sparse.ZerosDense(opts.Lat, opts.Lon)
	for y := 0; y < opts.Lat; y++ {
		for x := 0; x < opts.Lon; x++ {
			depth.Set(10+2*float64(x)+float64(y), y, x)
		}
	}
	depth.Set(SampleFill, 0, 0)

	for t := 0; t < opts.Steps; t++ {
		swell := 0.5 * math.Sin(2*math.Pi*float64(t)/opts.Period)
		for y := 0; y < opts.Lat; y++ {
			for x := 0; x < opts.Lon; x++ {
				i := (t*opts.Lat+y)*opts.Lon + x
				if x == 0 && y == 0 {
					hs.Elements[i] = SampleFill
					tp[i] = SampleFill
					continue
				}
				hs.Elements[i] = 1.5 + swell + 0.02*float64(x) + 0.01*float64(y)
				tp[i] = int16(math.Round((8 + 2*swell) * 100))
			}
		}
	}

	n := opts.Steps
	if err := write(f, DefaultTimeDim, times, n); err != nil {
		return err
	}
	if err := write(f, "lat", lats, n); err != nil {
		return err
	}
	if err := write(f, "lon", lons, n); err != nil {
		return err
	}
	if err := write(f, "hs", float32s(hs), n); err != nil {
		return err
	}
	if err := write(f, "tp", tp, n); err != nil {
		return err
	}
	if err := write(f, "depth", float32s(depth), n); err != nil {
		return err
	}
	if opts.Station != "" {
		if err := write(f, "station_name", []byte(opts.Station), n); err != nil {
			return err
		}
	}
	if opts.Unlimited {
		if err := cdf.UpdateNumRecs(ff); err != nil {
			return fmt.Errorf("wave: updating record count: %v", err)
		}
	}
	return ff.Sync()
}

// write stores a whole variable. A record dimension reads as length 0 in the
// header and is written with records entries.
func write(f *cdf.File, name string, data interface{}, records int) error {
	end := append([]int(nil), f.Header.Lengths(name)...)
	if len(end) > 0 && end[0] == 0 {
		end[0] = records
	}
	start := make([]int, len(end))
	if _, err := f.Writer(name, start, end).Write(data); err != nil {
		return fmt.Errorf("wave: writing %s: %v", name, err)
	}
	return nil
}

func float32s(a *sparse.DenseArray) []float32 {
	out := make([]float32, len(a.Elements))
	for i, e := range a.Elements {
		out[i] = float32(e)
	}
	return out
}
