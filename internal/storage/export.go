package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	*Report
	X []float64 `json:"x,omitempty"`
	Y []float64 `json:"y,omitempty"`
}

// Export writes a report and its series as indented JSON.
func (s *Store) Export(w io.Writer, id string) error {
	r, err := s.Load(id)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(id)
	if err != nil {
		return err
	}

	data := ExportData{Report: r}
	if series != nil {
		data.X = series.X
		data.Y = series.Y
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
