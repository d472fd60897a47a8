package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/lox/tempedge/internal/scan"
	"github.com/lox/tempedge/internal/store"
)

// RunState is the body returned by start and stop.
type RunState struct {
	Running bool `json:"running"`
	Changed bool `json:"changed"`
}

// DataResponse is the ranked board snapshot.
type DataResponse struct {
	Running     bool            `json:"running"`
	GeneratedAt time.Time       `json:"generated_at"`
	Tracked     []string        `json:"tracked"`
	Decisions   []scan.Decision `json:"decisions"`
}

type TrackResponse struct {
	ID      string `json:"id"`
	Tracked bool   `json:"tracked"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("api: write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	changed := s.scanner.Start(s.scanContext())
	writeJSON(w, http.StatusOK, RunState{Running: s.scanner.Running(), Changed: changed})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	changed := s.scanner.Stop()
	writeJSON(w, http.StatusOK, RunState{Running: s.scanner.Running(), Changed: changed})
}

// snapshot returns the board with tracking reflecting the current set rather
// than the set at evaluation time.
func (s *Server) snapshot() DataResponse {
	tracked := s.scanner.Tracked()
	decisions := s.scanner.Board().Snapshot()
	for i := range decisions {
		decisions[i].Tracked = tracked.Is(decisions[i].ID)
	}
	return DataResponse{
		Running:     s.scanner.Running(),
		GeneratedAt: s.now().UTC(),
		Tracked:     tracked.List(),
		Decisions:   decisions,
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["id"]))
	if _, ok := s.scanner.Target(id); !ok {
		writeError(w, http.StatusNotFound, "unknown target "+id)
		return
	}
	tracked := s.scanner.Tracked().Toggle(id)
	log.Info().Str("target", id).Bool("tracked", tracked).Msg("api: tracking toggled")
	writeJSON(w, http.StatusOK, TrackResponse{ID: id, Tracked: tracked})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []store.AlertEvent{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	events, err := s.history.RecentAlertEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []store.AlertEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HealthStatus reports whether the scanner is running and, with a history
// store, how the last hour of cycles went.
type HealthStatus struct {
	Status  string             `json:"status"`
	Running bool               `json:"running"`
	Targets int                `json:"targets"`
	Board   int                `json:"board"`
	Cycles  *store.CycleHealth `json:"cycles,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:  "ok",
		Running: s.scanner.Running(),
		Targets: len(s.scanner.Targets()),
		Board:   s.scanner.Board().Len(),
	}

	if s.history != nil {
		ch, err := s.history.GetCycleHealth(s.now().Add(-time.Hour))
		if err != nil {
			health.Status = "error"
			health.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, health)
			return
		}
		health.Cycles = &ch
		if health.Running && ch.TotalCycles > 0 && ch.SuccessCycles == 0 {
			health.Status = "degraded"
		}
	}

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
