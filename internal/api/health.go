package api

import (
	"context"
	"net/http"
	"time"
)

const pingTimeout = 2 * time.Second

type healthResponse struct {
	Status         string   `json:"status"`
	Timestamp      string   `json:"timestamp"`
	Database       dbHealth `json:"database"`
	ActiveAccounts []string `json:"activeAccounts"`
}

type dbHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// handleHealth reports "degraded" rather than failing when the store is
// unreachable, so the bridge can tell a dead process from a sick one.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Database:       s.pingDB(r.Context()),
		ActiveAccounts: s.trading.ActiveAccounts(),
	}
	if resp.Database.Status != "connected" {
		resp.Status = "degraded"
	}
	if resp.ActiveAccounts == nil {
		resp.ActiveAccounts = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pingDB(ctx context.Context) dbHealth {
	if s.stores.DB == nil {
		return dbHealth{Status: "unknown"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := s.stores.DB.Ping(ctx)
	h := dbHealth{Status: "connected", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		h.Status = "disconnected"
		h.Error = err.Error()
	}
	return h
}
