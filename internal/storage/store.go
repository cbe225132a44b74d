package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

var ErrNotFound = errors.New("storage: report not found")

// Store archives calculation reports under baseDir, one directory each.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Report is one saved calculation.
type Report struct {
	ID        string             `json:"id"`
	Module    string             `json:"module"`
	Timestamp time.Time          `json:"timestamp"`
	Source    string             `json:"source,omitempty"`
	Inputs    map[string]float64 `json:"inputs"`
	Metrics   map[string]float64 `json:"metrics"`
	Summary   string             `json:"summary"`

	// Series is the plotted curve, kept in series.csv.
	Series *Series `json:"-"`
}

// Series is an x/y curve such as a retreat projection or a time series.
type Series struct {
	XName, YName string
	X, Y         []float64
}

func (s *Store) Save(r *Report) (string, error) {
	now := time.Now()
	r.ID = fmt.Sprintf("%s_%d", r.Module, now.UnixNano())
	r.Timestamp = now
	runDir := filepath.Join(s.baseDir, r.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}

	if r.Series == nil || len(r.Series.X) == 0 {
		return r.ID, nil
	}
	if err := writeSeries(filepath.Join(runDir, "series.csv"), r.Series); err != nil {
		return "", err
	}
	return r.ID, nil
}

func writeSeries(path string, series *Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{series.XName, series.YName}); err != nil {
		return err
	}
	for i := range series.X {
		if i >= len(series.Y) {
			break
		}
		row := []string{
			strconv.FormatFloat(series.X[i], 'f', -1, 64),
			strconv.FormatFloat(series.Y[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns all reports, newest first.
func (s *Store) List() ([]Report, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Report{}, nil
		}
		return nil, err
	}

	reports := make([]Report, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		r, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		reports = append(reports, *r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})
	return reports, nil
}

func (s *Store) Load(id string) (*Report, error) {
	if id == "" || filepath.Base(id) != id {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadSeries reads the series saved with a report. A report without one
// returns nil.
func (s *Store) LoadSeries(id string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "series.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	series := &Series{XName: records[0][0], YName: records[0][1]}
	for _, record := range records[1:] {
		x, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		y, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		series.X = append(series.X, x)
		series.Y = append(series.Y, y)
	}
	return series, nil
}
