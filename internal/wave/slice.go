package wave

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Slice is one variable with the time dimension fixed at Index. Missing
// values are NaN.
type Slice struct {
	Var    VarInfo
	Index  int
	Dims   []string
	Shape  []int
	Data   *sparse.DenseArray
	Coords map[string][]float64

	Min, Max, Mean float64
	Valid          int
}

// Rank is the number of remaining dimensions.
func (s *Slice) Rank() int { return len(s.Shape) }

// Values returns the row-major values.
func (s *Slice) Values() []float64 { return s.Data.Elements }

// At returns the value at the given index of the remaining dimensions.
func (s *Slice) At(index ...int) float64 { return s.Data.Get(index...) }

// Grid returns a rank-2 slice as rows (first dim) of columns (second dim).
func (s *Slice) Grid() ([][]float64, error) {
	if s.Rank() != 2 {
		return nil, fmt.Errorf("wave: grid needs rank 2, have %d", s.Rank())
	}
	ny, nx := s.Shape[0], s.Shape[1]
	rows := make([][]float64, ny)
	for j := 0; j < ny; j++ {
		rows[j] = make([]float64, nx)
		for i := 0; i < nx; i++ {
			rows[j][i] = s.At(j, i)
		}
	}
	return rows, nil
}

// Slice reads variable name at time step t, the equivalent of
// isel(time=t).
func (d *Dataset) Slice(name string, t int) (*Slice, error) {
	info, err := d.Variable(name)
	if err != nil {
		return nil, err
	}
	if !d.isNumeric(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}

	ti := -1
	for i, dim := range info.Dims {
		if dim == d.timeDim {
			ti = i
			break
		}
	}
	if ti < 0 {
		return nil, fmt.Errorf("%w: %q has dimensions %v", ErrNoTimeDim, name, info.Dims)
	}
	nt := info.Shape[ti]
	if t < 0 || t >= nt {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrTimeIndex, t, nt-1)
	}

	begin := make([]int, len(info.Shape))
	end := make([]int, len(info.Shape))
	copy(end, info.Shape)
	begin[ti], end[ti] = t, t+1

	vals, err := d.read(name, begin, end)
	if err != nil {
		return nil, err
	}
	d.decode(name, vals)

	s := &Slice{
		Var:    info,
		Index:  t,
		Coords: make(map[string][]float64),
	}
	for i, dim := range info.Dims {
		if i == ti {
			continue
		}
		s.Dims = append(s.Dims, dim)
		s.Shape = append(s.Shape, info.Shape[i])
		if c, err := d.coord(dim); err == nil {
			s.Coords[dim] = c
		}
	}

	shape := s.Shape
	if len(shape) == 0 {
		shape = []int{1}
	}
	s.Data = sparse.ZerosDense(shape...)
	copy(s.Data.Elements, vals)
	s.Min, s.Max, s.Mean, s.Valid = stats(vals)
	return s, nil
}

// Series returns the mean of variable name over all non-time dimensions at
// every time step.
func (d *Dataset) Series(name string) ([]float64, error) {
	nt, err := d.TimeLen()
	if err != nil {
		return nil, err
	}
	out := make([]float64, nt)
	for t := 0; t < nt; t++ {
		s, err := d.Slice(name, t)
		if err != nil {
			return nil, err
		}
		out[t] = s.Mean
	}
	return out, nil
}

// coord reads the coordinate variable for dim, if the file has one.
func (d *Dataset) coord(dim string) ([]float64, error) {
	if !d.has(dim) || !d.isCoord(dim) || !d.isNumeric(dim) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVar, dim)
	}
	n := d.dimLen[dim]
	vals, err := d.read(dim, []int{0}, []int{n})
	if err != nil {
		return nil, err
	}
	d.decode(dim, vals)
	return vals, nil
}

func (d *Dataset) read(name string, begin, end []int) ([]float64, error) {
	n := 1
	for i := range begin {
		n *= end[i] - begin[i]
	}
	if n == 0 {
		return []float64{}, nil
	}
	r := d.file.Reader(name, begin, end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("wave: reading %s: %v", name, err)
	}
	vals, ok := toFloat64(buf)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return vals, nil
}

// decode applies CF packing and missing-value conventions in place.
func (d *Dataset) decode(name string, vals []float64) {
	h := d.file.Header
	var missing []float64
	for _, a := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(h.GetAttribute(name, a)); ok {
			missing = append(missing, v)
		}
	}
	scale, hasScale := attrFloat(h.GetAttribute(name, "scale_factor"))
	offset, hasOffset := attrFloat(h.GetAttribute(name, "add_offset"))

	for i, v := range vals {
		if isMissing(v, missing) {
			vals[i] = math.NaN()
			continue
		}
		if hasScale {
			v *= scale
		}
		if hasOffset {
			v += offset
		}
		vals[i] = v
	}
}

func isMissing(v float64, missing []float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, m := range missing {
		if v == m {
			return true
		}
		// float32 fill values widened to float64 may differ in the last bits
		if m != 0 && math.Abs((v-m)/m) < 1e-6 {
			return true
		}
	}
	return false
}

func stats(vals []float64) (minV, maxV, mean float64, valid int) {
	minV, maxV = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		valid++
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if valid == 0 {
		return math.NaN(), math.NaN(), math.NaN(), 0
	}
	return minV, maxV, sum / float64(valid), valid
}

func toFloat64(buf interface{}) ([]float64, bool) {
	switch b := buf.(type) {
	case []float64:
		out := make([]float64, len(b))
		copy(out, b)
		return out, true
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, true
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, true
	case []int16:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, true
	case []int8:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, true
	}
	// []byte is NC_CHAR text; the signed NC_BYTE type arrives as []int8.
	return nil, false
}

func attrFloat(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch a := v.(type) {
	case float64:
		return a, true
	case float32:
		return float64(a), true
	}
	vals, ok := toFloat64(v)
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

func attrString(v interface{}) string {
	switch a := v.(type) {
	case string:
		return a
	case []byte:
		return string(a)
	}
	return ""
}
