// Package wave opens gridded ocean-model output stored as NetCDF classic
// files and extracts per-time-step slices of its data variables.
package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/cdf"
)

// DefaultTimeDim is the dimension indexed by the time slider.
const DefaultTimeDim = "time"

var (
	ErrExtension     = errors.New("wave: only .nc files are accepted")
	ErrNotNetCDF     = errors.New("wave: not a NetCDF classic file")
	ErrEmpty         = errors.New("wave: file is empty")
	ErrUnknownVar    = errors.New("wave: unknown variable")
	ErrNotNumeric    = errors.New("wave: variable is not numeric")
	ErrNoTimeDim     = errors.New("wave: no time dimension")
	ErrTimeIndex     = errors.New("wave: time index out of range")
	ErrNoDataVars    = errors.New("wave: dataset has no data variables")
	ErrShortSeries   = errors.New("wave: series too short for spectral analysis")
	errReadOnlyInput = errors.New("wave: dataset opened read-only")
)

// Options tune how a dataset is interpreted.
type Options struct {
	TimeDim string
}

// Dataset is an open NetCDF file. It is not safe for concurrent use.
type Dataset struct {
	Name string

	file    *cdf.File
	closer  io.Closer
	timeDim string
	vars    []string
	dimLen  map[string]int
	recDim  string
}

// VarInfo describes one variable from the header.
type VarInfo struct {
	Name     string
	LongName string
	Units    string
	Dims     []string
	Shape    []int
}

// Label is "long_name [units]" the way plot axes show it.
func (v VarInfo) Label() string {
	name := v.LongName
	if name == "" {
		name = v.Name
	}
	if v.Units == "" {
		return name
	}
	return fmt.Sprintf("%s [%s]", name, v.Units)
}

// Open reads the header of the NetCDF file at path.
func Open(path string, opts Options) (*Dataset, error) {
	if err := checkExtension(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ds, err := open(filepath.Base(path), f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	ds.closer = f
	return ds, nil
}

// OpenBytes opens an uploaded file held in memory.
func OpenBytes(name string, data []byte, opts Options) (*Dataset, error) {
	if err := checkExtension(name); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return open(name, &memFile{data: data}, opts)
}

func open(name string, rw readerWriterAt, opts Options) (ds *Dataset, err error) {
	// The decoder panics on some truncated headers.
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("%w: %v", ErrNotNetCDF, r)
		}
	}()

	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotNetCDF, err)
	}

	timeDim := opts.TimeDim
	if timeDim == "" {
		timeDim = DefaultTimeDim
	}

	ds = &Dataset{
		Name:    name,
		file:    f,
		timeDim: timeDim,
		vars:    f.Header.Variables(),
		dimLen:  make(map[string]int),
	}
	var recVar string
	for _, v := range ds.vars {
		dims := f.Header.Dimensions(v)
		lens := f.Header.Lengths(v)
		for i, d := range dims {
			if i < len(lens) {
				ds.dimLen[d] = lens[i]
			}
		}
		// The header stores the record dimension with length 0.
		if len(dims) > 0 && len(lens) > 0 && lens[0] == 0 {
			ds.recDim = dims[0]
			recVar = v
		}
	}
	if ds.recDim != "" {
		n, err := ds.numRecs(rw, recVar)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotNetCDF, err)
		}
		ds.dimLen[ds.recDim] = n
	}
	return ds, nil
}

// streamingRecs is the numrecs value of a file still being written.
const streamingRecs = 0xFFFFFFFF

// numRecs reads the record count stored after the magic bytes of a classic
// header. A streaming count is recovered by probing recVar, the last record
// variable in file order.
func (d *Dataset) numRecs(r io.ReaderAt, recVar string) (int, error) {
	var b [4]byte
	if n, err := r.ReadAt(b[:], 4); n < len(b) {
		return 0, fmt.Errorf("reading numrecs: %v", err)
	}
	n := binary.BigEndian.Uint32(b[:])
	if n != streamingRecs {
		return int(n), nil
	}

	if !d.hasRecord(recVar, 0) {
		return 0, nil
	}
	lo, hi := 0, 1
	for d.hasRecord(recVar, hi) {
		lo, hi = hi, hi*2
	}
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if d.hasRecord(recVar, mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + 1, nil
}

// hasRecord reports whether the last value of record k of v is in the file.
func (d *Dataset) hasRecord(v string, k int) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	lens := d.file.Header.Lengths(v)
	begin := make([]int, len(lens))
	end := make([]int, len(lens))
	begin[0], end[0] = k, k+1
	for i := 1; i < len(lens); i++ {
		begin[i], end[i] = lens[i]-1, lens[i]
	}
	r := d.file.Reader(v, begin, end)
	n, err := r.Read(r.Zero(1))
	return n > 0 && (err == nil || errors.Is(err, io.EOF))
}

func checkExtension(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".nc") {
		return fmt.Errorf("%w: %s", ErrExtension, name)
	}
	return nil
}

// Close releases the underlying file, if any.
func (d *Dataset) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// TimeDim is the name of the dimension the time index applies to.
func (d *Dataset) TimeDim() string { return d.timeDim }

// Variables lists every variable in header order.
func (d *Dataset) Variables() []string {
	out := make([]string, len(d.vars))
	copy(out, d.vars)
	return out
}

// DataVars lists numeric variables that are not coordinate variables.
func (d *Dataset) DataVars() []string {
	out := make([]string, 0, len(d.vars))
	for _, v := range d.vars {
		if d.isCoord(v) || !d.isNumeric(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Dims maps dimension name to length.
func (d *Dataset) Dims() map[string]int {
	out := make(map[string]int, len(d.dimLen))
	for k, v := range d.dimLen {
		out[k] = v
	}
	return out
}

// TimeLen is the number of steps along the time dimension.
func (d *Dataset) TimeLen() (int, error) {
	n, ok := d.dimLen[d.timeDim]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoTimeDim, d.timeDim)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %q has no records", ErrNoTimeDim, d.timeDim)
	}
	return n, nil
}

// Variable returns header metadata for name.
func (d *Dataset) Variable(name string) (VarInfo, error) {
	if !d.has(name) {
		return VarInfo{}, fmt.Errorf("%w: %q", ErrUnknownVar, name)
	}
	h := d.file.Header
	return VarInfo{
		Name:     name,
		LongName: attrString(h.GetAttribute(name, "long_name")),
		Units:    attrString(h.GetAttribute(name, "units")),
		Dims:     h.Dimensions(name),
		Shape:    d.lengths(name),
	}, nil
}

// lengths is Header.Lengths with the record count in place of the record
// dimension's stored 0.
func (d *Dataset) lengths(name string) []int {
	dims := d.file.Header.Dimensions(name)
	lens := append([]int(nil), d.file.Header.Lengths(name)...)
	if len(dims) > 0 && len(lens) > 0 && dims[0] == d.recDim {
		lens[0] = d.dimLen[d.recDim]
	}
	return lens
}

// Attributes returns the string-valued attributes of a variable, or the
// global attributes when name is empty.
func (d *Dataset) Attributes(name string) map[string]string {
	h := d.file.Header
	out := make(map[string]string)
	for _, a := range h.Attributes(name) {
		if s := attrString(h.GetAttribute(name, a)); s != "" {
			out[a] = s
		}
	}
	return out
}

func (d *Dataset) has(name string) bool {
	for _, v := range d.vars {
		if v == name {
			return true
		}
	}
	return false
}

func (d *Dataset) isCoord(name string) bool {
	dims := d.file.Header.Dimensions(name)
	return len(dims) == 1 && dims[0] == name
}

// isNumeric rejects char variables, which the decoder hands back as []byte.
func (d *Dataset) isNumeric(name string) bool {
	_, ok := toFloat64(d.file.Reader(name, nil, nil).Zero(1))
	return ok
}

type readerWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// memFile adapts an uploaded byte slice to the decoder's ReaderAt/WriterAt
// contract.
type memFile struct {
	data []byte
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("wave: negative offset")
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, errReadOnlyInput
}
