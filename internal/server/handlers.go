package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/san-kum/coastkit/internal/carbonate"
	"github.com/san-kum/coastkit/internal/config"
	"github.com/san-kum/coastkit/internal/dashboard"
	"github.com/san-kum/coastkit/internal/plot"
	"github.com/san-kum/coastkit/internal/sediment"
	"github.com/san-kum/coastkit/internal/shoreline"
)

type sedimentRequest struct {
	Velocity float64 `json:"velocity"`
	D50      float64 `json:"d50"`
}

type carbonateRequest struct {
	Alkalinity  float64 `json:"alkalinity"`
	DIC         float64 `json:"dic"`
	Temperature float64 `json:"temperature"`
	Salinity    float64 `json:"salinity"`
}

type shorelineRequest struct {
	Rate  float64 `json:"rate"`
	Years int     `json:"years"`
}

// errorResponse is the body of a malformed request.
type errorResponse struct {
	Error string `json:"error"`
}

type pageData struct {
	Title     string
	Modules   []dashboard.Module
	Config    *config.Config
	MinYears  int
	MaxYears  int
	MaxUpload int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.page.Execute(&buf, pageData{
		Title:     dashboard.AppTitle,
		Modules:   dashboard.Modules(),
		Config:    s.cfg,
		MinYears:  shoreline.MinYears,
		MaxYears:  shoreline.MaxYears,
		MaxUpload: s.cfg.Server.MaxUploadMB,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) handleSediment(w http.ResponseWriter, r *http.Request) {
	req := sedimentRequest{Velocity: s.cfg.Sediment.Velocity, D50: s.cfg.Sediment.D50}
	if !s.decode(w, r, &req) {
		return
	}
	s.writePanel(w, dashboard.Sediment(sediment.Input{Velocity: req.Velocity, D50: req.D50}))
}

func (s *Server) handleCarbonate(w http.ResponseWriter, r *http.Request) {
	c := s.cfg.Carbonate
	req := carbonateRequest{Alkalinity: c.Alkalinity, DIC: c.DIC, Temperature: c.Temperature, Salinity: c.Salinity}
	if !s.decode(w, r, &req) {
		return
	}
	s.writePanel(w, dashboard.Carbonate(carbonate.Input{
		Alkalinity:  req.Alkalinity,
		DIC:         req.DIC,
		Temperature: req.Temperature,
		Salinity:    req.Salinity,
	}))
}

func (s *Server) handleShoreline(w http.ResponseWriter, r *http.Request) {
	req := shorelineRequest{Rate: s.cfg.Shoreline.Rate, Years: s.cfg.Shoreline.Years}
	if !s.decode(w, r, &req) {
		return
	}
	s.writePanel(w, dashboard.Shoreline(req.Rate, req.Years))
}

func (s *Server) handleShorelinePlot(w http.ResponseWriter, r *http.Request) {
	rate := s.cfg.Shoreline.Rate
	years := s.cfg.Shoreline.Years
	q := r.URL.Query()
	if v := q.Get("rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.badRequest(w, fmt.Errorf("rate: %w", err))
			return
		}
		rate = f
	}
	if v := q.Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.badRequest(w, fmt.Errorf("years: %w", err))
			return
		}
		years = n
	}
	s.writeFigure(w, dashboard.Shoreline(rate, years))
}

func (s *Server) handleWaveVariables(w http.ResponseWriter, r *http.Request) {
	req, ok := s.waveUpload(w, r)
	if !ok {
		return
	}
	s.writePanel(w, dashboard.WaveInfo(req))
}

func (s *Server) handleWavePlot(w http.ResponseWriter, r *http.Request) {
	req, ok := s.waveUpload(w, r)
	if !ok {
		return
	}
	req.Variable = r.FormValue("var")
	if v := r.FormValue("time"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil {
			s.badRequest(w, fmt.Errorf("time: %w", err))
			return
		}
		req.TimeIndex = t
	}
	s.writeFigure(w, dashboard.Wave(req))
}

// waveUpload reads the multipart "file" field into memory.
func (s *Server) waveUpload(w http.ResponseWriter, r *http.Request) (dashboard.WaveRequest, bool) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB)})
			return dashboard.WaveRequest{}, false
		}
		s.badRequest(w, err)
		return dashboard.WaveRequest{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, fmt.Errorf("file: %w", err))
		return dashboard.WaveRequest{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.badRequest(w, err)
		return dashboard.WaveRequest{}, false
	}
	return dashboard.WaveRequest{
		Name:    header.Filename,
		Data:    data,
		TimeDim: s.cfg.Wave.TimeDim,
	}, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.badRequest(w, err)
		return false
	}
	return true
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writePanel answers 422 when the calculation failed; the panel carries the
// message either way.
func (s *Server) writePanel(w http.ResponseWriter, p *dashboard.Panel) {
	status := http.StatusOK
	if p.Failed() {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, p)
}

// writeFigure renders the panel's figure as PNG, or the panel as JSON when
// there is nothing to draw.
func (s *Server) writeFigure(w http.ResponseWriter, p *dashboard.Panel) {
	if p.Failed() || p.Figure == nil {
		s.writePanel(w, p)
		return
	}
	var buf bytes.Buffer
	if err := plot.PNG(&buf, p.Figure, s.cfg.Wave.PlotWidth, s.cfg.Wave.PlotHeight); err != nil {
		p.Messages = append(p.Messages, dashboard.Message{Level: dashboard.LevelError, Text: fmt.Sprintf("Failed to render plot: %v", err)})
		s.writeJSON(w, http.StatusUnprocessableEntity, p)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("encode response")
	}
}
