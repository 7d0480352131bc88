package api

import (
	"net/http"

	"github.com/kjannette/bullionaire-backend/internal/models"
)

type openPositionResponse struct {
	Position *models.Position `json:"position"`
}

// requireAccount writes a 404 and reports false when the path account does
// not exist.
func (s *Server) requireAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := s.stores.Accounts.Get(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "fetch account")
		return "", false
	}
	return id, true
}

func (s *Server) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireAccount(w, r)
	if !ok {
		return
	}
	p, err := s.stores.Positions.FindOpenPosition(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "fetch open position")
		return
	}
	writeJSON(w, http.StatusOK, openPositionResponse{Position: p})
}

func (s *Server) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireAccount(w, r)
	if !ok {
		return
	}
	closed, err := s.stores.Positions.ListClosedPositions(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "fetch closed positions")
		return
	}
	if closed == nil {
		closed = []models.Position{}
	}
	writeJSON(w, http.StatusOK, closed)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireAccount(w, r)
	if !ok {
		return
	}
	entries, err := s.stores.Activities.Recent(r.Context(), id, parseLimit(r, 50))
	if err != nil {
		s.writeStoreError(w, err, "fetch activities")
		return
	}
	if entries == nil {
		entries = []models.ActivityLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
