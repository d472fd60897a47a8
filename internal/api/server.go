package api

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/scan"
	"github.com/lox/tempedge/internal/store"
)

// Scanner is the part of the scheduler the control surface drives.
type Scanner interface {
	Start(ctx context.Context) bool
	Stop() bool
	Running() bool
	Board() *scan.Board
	Tracked() *scan.Tracked
	Targets() []models.Target
	Target(id string) (models.Target, bool)
}

// History is the optional alert and cycle log behind /api/alerts and the
// health check.
type History interface {
	RecentAlertEvents(limit int) ([]store.AlertEvent, error)
	GetCycleHealth(since time.Time) (store.CycleHealth, error)
}

type Server struct {
	scanner Scanner
	history History
	port    string
	tmpl    *template.Template
	now     func() time.Time

	mu      sync.Mutex
	baseCtx context.Context
}

func NewServer(scanner Scanner, port string) *Server {
	return &Server{
		scanner: scanner,
		port:    port,
		tmpl:    newTemplates(),
		now:     time.Now,
		baseCtx: context.Background(),
	}
}

// SetHistory enables the alert feed and cycle stats in /health.
func (s *Server) SetHistory(h History) {
	s.history = h
}

// SetBaseContext sets the context scanning runs under when started over
// HTTP. Run sets it to its own context.
func (s *Server) SetBaseContext(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
}

func (s *Server) scanContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	a.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	a.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	a.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	a.HandleFunc("/targets/{id}/track", s.handleTrack).Methods(http.MethodPost)
	return r
}

func (s *Server) Run(ctx context.Context) error {
	s.SetBaseContext(ctx)

	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server: shutdown")
		}
	}()

	log.Info().Str("port", s.port).Msg("server: listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
