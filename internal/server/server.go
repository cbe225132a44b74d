// Package server serves the dashboard as a single web page backed by JSON
// and PNG endpoints.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/coastkit/internal/config"
)

//go:embed templates/index.html
var templates embed.FS

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg  *config.Config
	log  zerolog.Logger
	page *template.Template
	mux  *http.ServeMux
}

func New(cfg *config.Config, log zerolog.Logger) *Server {
	s := &Server{
		cfg:  cfg,
		log:  log,
		page: template.Must(template.ParseFS(templates, "templates/index.html")),
		mux:  http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/wave/variables", s.handleWaveVariables)
	s.mux.HandleFunc("POST /api/wave/plot", s.handleWavePlot)
	s.mux.HandleFunc("POST /api/sediment", s.handleSediment)
	s.mux.HandleFunc("POST /api/carbonate", s.handleCarbonate)
	s.mux.HandleFunc("POST /api/shoreline", s.handleShoreline)
	s.mux.HandleFunc("GET /api/shoreline/plot", s.handleShorelinePlot)
}

// Handler is the mux wrapped in request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return Logging(s.log, Recover(s.log, s.mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", srv.Addr).Msg("dashboard listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
