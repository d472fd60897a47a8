package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", s.snapshot()); err != nil {
		log.Error().Err(err).Msg("api: render index")
	}
}
