package api

import (
	"net/http"

	"github.com/kjannette/bullionaire-backend/internal/models"
)

// handleCurrentCommand serves the pending bridge command in its wire shape,
// or 204 when the slot is empty.
func (s *Server) handleCurrentCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.stores.Commands.Current(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "fetch command")
		return
	}
	if cmd == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

func (s *Server) handleClearCommand(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.stores.Commands.Clear(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "clear command")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": cleared})
}

func (s *Server) handleCommandHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.stores.Commands.History(r.Context(), parseLimit(r, 50))
	if err != nil {
		s.writeStoreError(w, err, "fetch command history")
		return
	}
	if history == nil {
		history = []models.CommandRecord{}
	}
	writeJSON(w, http.StatusOK, history)
}
