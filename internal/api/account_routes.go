package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kjannette/bullionaire-backend/internal/models"
)

type createAccountRequest struct {
	UserID string `json:"userProfileId"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userProfileId is required")
		return
	}

	created, err := s.stores.Accounts.Create(r.Context(), models.NewAccount(uuid.NewString(), req.UserID))
	if err != nil {
		s.writeStoreError(w, err, "create account")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.stores.Accounts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "fetch account")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAccountForUser(w http.ResponseWriter, r *http.Request) {
	a, err := s.stores.Accounts.FirstForUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.writeStoreError(w, err, "fetch account")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateLimits(w http.ResponseWriter, r *http.Request) {
	var limits models.AccountLimits
	if err := decodeBody(r, &limits); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := limits.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.stores.Accounts.UpdateLimits(r.Context(), r.PathValue("id"), limits)
	if err != nil {
		s.writeStoreError(w, err, "update limits")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleStartTrading(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.trading.StartTrading(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "start trading")
		return
	}
	s.handleTradingStatus(w, r)
}

func (s *Server) handlePauseTrading(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.trading.PauseTrading(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "pause trading")
		return
	}
	s.handleTradingStatus(w, r)
}

func (s *Server) handleTradingStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.trading.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "fetch trading status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
