package wave

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTestSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.nc")
	if err := WriteSample(path, DefaultSampleOptions()); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func openTestSample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Open(writeTestSample(t), Options{})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestDataVarsExcludeCoordinates(t *testing.T) {
	ds := openTestSample(t)

	got := ds.DataVars()
	expected := []string{"hs", "tp", "depth"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("var %d: expected %s, got %s", i, expected[i], got[i])
		}
	}

	if len(ds.Variables()) != 6 {
		t.Errorf("expected 6 variables in header, got %d", len(ds.Variables()))
	}
}

func TestTimeLen(t *testing.T) {
	ds := openTestSample(t)

	n, err := ds.TimeLen()
	if err != nil {
		t.Fatal(err)
	}
	if n != 24 {
		t.Errorf("expected 24 time steps, got %d", n)
	}
	if ds.Dims()["lon"] != 16 {
		t.Errorf("expected lon length 16, got %d", ds.Dims()["lon"])
	}
}

func TestTimeLenCustomDim(t *testing.T) {
	ds, err := Open(writeTestSample(t), Options{TimeDim: "step"})
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	if _, err := ds.TimeLen(); !errors.Is(err, ErrNoTimeDim) {
		t.Errorf("expected ErrNoTimeDim, got %v", err)
	}
}

func TestVariableMetadata(t *testing.T) {
	ds := openTestSample(t)

	info, err := ds.Variable("hs")
	if err != nil {
		t.Fatal(err)
	}
	if info.Units != "m" {
		t.Errorf("expected units m, got %q", info.Units)
	}
	if info.Label() != "significant wave height [m]" {
		t.Errorf("unexpected label %q", info.Label())
	}
	if len(info.Shape) != 3 || info.Shape[1] != 12 {
		t.Errorf("unexpected shape %v", info.Shape)
	}
	if ds.Attributes("")["Conventions"] != "CF-1.6" {
		t.Errorf("expected global Conventions attribute, got %v", ds.Attributes(""))
	}
}

func TestSliceDecodesFillValue(t *testing.T) {
	ds := openTestSample(t)

	s, err := ds.Slice("hs", 3)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if s.Rank() != 2 || s.Shape[0] != 12 || s.Shape[1] != 16 {
		t.Fatalf("unexpected shape %v", s.Shape)
	}
	if s.Dims[0] != "lat" || s.Dims[1] != "lon" {
		t.Errorf("unexpected dims %v", s.Dims)
	}
	if !math.IsNaN(s.At(0, 0)) {
		t.Errorf("expected fill value decoded to NaN, got %v", s.At(0, 0))
	}
	if s.Valid != 12*16-1 {
		t.Errorf("expected %d valid cells, got %d", 12*16-1, s.Valid)
	}
	if math.IsNaN(s.Min) || s.Min < 0 {
		t.Errorf("min should ignore missing cells, got %v", s.Min)
	}
	if len(s.Coords["lat"]) != 12 || len(s.Coords["lon"]) != 16 {
		t.Errorf("expected coordinates for lat/lon, got %v", s.Coords)
	}

	grid, err := s.Grid()
	if err != nil {
		t.Fatal(err)
	}
	if grid[2][5] != s.At(2, 5) {
		t.Errorf("grid and At disagree: %v vs %v", grid[2][5], s.At(2, 5))
	}
}

func TestSliceAppliesScaleFactor(t *testing.T) {
	ds := openTestSample(t)

	s, err := ds.Slice("tp", 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.At(1, 1)-8.0) > 1e-4 {
		t.Errorf("expected unpacked 8.0 s, got %v", s.At(1, 1))
	}
	if !math.IsNaN(s.At(0, 0)) {
		t.Errorf("expected packed fill decoded to NaN, got %v", s.At(0, 0))
	}
}

func TestSliceErrors(t *testing.T) {
	ds := openTestSample(t)

	tests := []struct {
		name  string
		v     string
		index int
		want  error
	}{
		{"unknown variable", "sst", 0, ErrUnknownVar},
		{"no time dimension", "depth", 0, ErrNoTimeDim},
		{"negative index", "hs", -1, ErrTimeIndex},
		{"index past end", "hs", 24, ErrTimeIndex},
	}

	for _, tt := range tests {
		_, err := ds.Slice(tt.v, tt.index)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	if _, err := ds.Slice("hs", 23); err != nil {
		t.Errorf("last index should be valid: %v", err)
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "waves.txt")
	os.WriteFile(txt, []byte("hello"), 0644)

	if _, err := Open(txt, Options{}); !errors.Is(err, ErrExtension) {
		t.Errorf("expected ErrExtension, got %v", err)
	}
	if _, err := OpenBytes("junk.nc", []byte("this is not a netcdf file"), Options{}); !errors.Is(err, ErrNotNetCDF) {
		t.Errorf("expected ErrNotNetCDF, got %v", err)
	}
	if _, err := OpenBytes("empty.nc", nil, Options{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestOpenBytesMatchesOpen(t *testing.T) {
	path := writeTestSample(t)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	ds, err := OpenBytes("upload.nc", data, Options{})
	if err != nil {
		t.Fatalf("open bytes failed: %v", err)
	}
	if ds.Name != "upload.nc" {
		t.Errorf("expected name upload.nc, got %s", ds.Name)
	}
	s, err := ds.Slice("hs", 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Valid != 12*16-1 {
		t.Errorf("expected %d valid cells, got %d", 12*16-1, s.Valid)
	}
}

func TestSeriesSpectrum(t *testing.T) {
	ds := openTestSample(t)

	series, err := ds.Series("hs")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 24 {
		t.Fatalf("expected 24 points, got %d", len(series))
	}

	ps, err := Spectrum(series)
	if err != nil {
		t.Fatal(err)
	}
	if ps.DominantIndex != 4 {
		t.Errorf("expected dominant bin 4, got %d", ps.DominantIndex)
	}
	if math.Abs(ps.DominantPeriod-6) > 1e-9 {
		t.Errorf("expected 6-step period, got %v", ps.DominantPeriod)
	}
	if len(ps.Power) != 13 {
		t.Errorf("expected 13 one-sided bins, got %d", len(ps.Power))
	}
}

func TestSpectrumShortSeries(t *testing.T) {
	if _, err := Spectrum([]float64{1, 2, 3}); !errors.Is(err, ErrShortSeries) {
		t.Errorf("expected ErrShortSeries, got %v", err)
	}
	nan := math.NaN()
	if _, err := Spectrum([]float64{nan, nan, nan, nan}); !errors.Is(err, ErrShortSeries) {
		t.Errorf("expected ErrShortSeries for all-missing series, got %v", err)
	}
}

func writeRecordSample(t *testing.T) string {
	t.Helper()
	opts := DefaultSampleOptions()
	opts.Unlimited = true
	path := filepath.Join(t.TempDir(), "records.nc")
	if err := WriteSample(path, opts); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestRecordTimeDimension(t *testing.T) {
	ds, err := Open(writeRecordSample(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	n, err := ds.TimeLen()
	if err != nil {
		t.Fatalf("record dimension should count its records: %v", err)
	}
	if n != 24 {
		t.Errorf("expected 24 records, got %d", n)
	}

	info, err := ds.Variable("hs")
	if err != nil {
		t.Fatal(err)
	}
	if info.Shape[0] != 24 {
		t.Errorf("expected record length in shape, got %v", info.Shape)
	}

	s, err := ds.Slice("hs", 23)
	if err != nil {
		t.Fatalf("last record should be readable: %v", err)
	}
	if s.Valid != 12*16-1 {
		t.Errorf("expected %d valid cells, got %d", 12*16-1, s.Valid)
	}
	if _, err := ds.Slice("hs", 24); !errors.Is(err, ErrTimeIndex) {
		t.Errorf("expected ErrTimeIndex past the last record, got %v", err)
	}

	series, err := ds.Series("hs")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 24 {
		t.Errorf("expected 24 points, got %d", len(series))
	}
}

func TestRecordTimeMatchesFixed(t *testing.T) {
	fixed := openTestSample(t)
	rec, err := Open(writeRecordSample(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	a, err := fixed.Slice("tp", 7)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rec.Slice("tp", 7)
	if err != nil {
		t.Fatal(err)
	}
	if a.At(3, 4) != b.At(3, 4) || a.Mean != b.Mean {
		t.Errorf("record layout read differently: %v/%v vs %v/%v", a.At(3, 4), a.Mean, b.At(3, 4), b.Mean)
	}
}

func TestStreamingRecordCount(t *testing.T) {
	data, err := os.ReadFile(writeRecordSample(t))
	if err != nil {
		t.Fatal(err)
	}
	// numrecs follows the 4-byte magic; all ones means "still streaming".
	copy(data[4:8], []byte{0xff, 0xff, 0xff, 0xff})

	ds, err := OpenBytes("streaming.nc", data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	n, err := ds.TimeLen()
	if err != nil {
		t.Fatal(err)
	}
	if n != 24 {
		t.Errorf("expected 24 records from the data size, got %d", n)
	}
}

func TestCharVariablesAreNotData(t *testing.T) {
	opts := DefaultSampleOptions()
	opts.Station = "buoy-42"
	path := filepath.Join(t.TempDir(), "station.nc")
	if err := WriteSample(path, opts); err != nil {
		t.Fatal(err)
	}
	ds, err := Open(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	if len(ds.Variables()) != 7 {
		t.Fatalf("expected station_name in header, got %v", ds.Variables())
	}
	got := ds.DataVars()
	if len(got) != 3 || got[0] != "hs" || got[2] != "depth" {
		t.Errorf("char variable should not be listed, got %v", got)
	}
	if _, err := ds.Slice("station_name", 0); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}
}
