package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/bot"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"go.uber.org/zap"
)

const maxQueryLimit = 1000

type AccountStore interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	FirstForUser(ctx context.Context, userID string) (*models.Account, error)
	UpdateLimits(ctx context.Context, id string, l models.AccountLimits) (*models.Account, error)
}

type PositionReader interface {
	FindOpenPosition(ctx context.Context, accountID string) (*models.Position, error)
	ListClosedPositions(ctx context.Context, accountID string) ([]models.Position, error)
}

type ActivityReader interface {
	Recent(ctx context.Context, accountID string, limit int) ([]models.ActivityLogEntry, error)
}

// CommandSlot is the bridge-facing side of the command outbox.
type CommandSlot interface {
	Current(ctx context.Context) (*models.TradeCommand, error)
	Clear(ctx context.Context) (bool, error)
	History(ctx context.Context, limit int) ([]models.CommandRecord, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Trading starts, pauses and reports the per-account decision cycle.
type Trading interface {
	StartTrading(ctx context.Context, accountID string) error
	PauseTrading(ctx context.Context, accountID string) error
	Status(ctx context.Context, accountID string) (bot.Status, error)
	ActiveAccounts() []string
}

type Stores struct {
	Accounts   AccountStore
	Positions  PositionReader
	Activities ActivityReader
	Commands   CommandSlot
	DB         Pinger
}

type Options struct {
	Port       int
	APIKey     string
	CORSOrigin string
}

type Server struct {
	stores     Stores
	trading    Trading
	httpServer *http.Server
	apiKey     string
	log        *zap.SugaredLogger
}

func NewServer(opts Options, stores Stores, trading Trading) *Server {
	s := &Server{
		stores:  stores,
		trading: trading,
		apiKey:  opts.APIKey,
		log:     logger.Named("API"),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.authMiddleware(corsMiddleware(s.routes(), opts.CORSOrigin)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Account routes
	mux.HandleFunc("POST /v1/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /v1/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /v1/accounts/{id}/limits", s.handleUpdateLimits)
	mux.HandleFunc("GET /v1/users/{userID}/account", s.handleAccountForUser)

	// Trading routes
	mux.HandleFunc("POST /v1/accounts/{id}/trading/start", s.handleStartTrading)
	mux.HandleFunc("POST /v1/accounts/{id}/trading/pause", s.handlePauseTrading)
	mux.HandleFunc("GET /v1/accounts/{id}/trading/status", s.handleTradingStatus)

	// Ledger and activity routes
	mux.HandleFunc("GET /v1/accounts/{id}/positions/open", s.handleOpenPosition)
	mux.HandleFunc("GET /v1/accounts/{id}/positions/closed", s.handleClosedPositions)
	mux.HandleFunc("GET /v1/accounts/{id}/activities", s.handleActivities)

	// Bridge routes
	mux.HandleFunc("GET /v1/commands/current", s.handleCurrentCommand)
	mux.HandleFunc("DELETE /v1/commands/current", s.handleClearCommand)
	mux.HandleFunc("GET /v1/commands/history", s.handleCommandHistory)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Infof("REST API server started on http://localhost%s", s.httpServer.Addr)
	s.log.Infof("Health check: http://localhost%s/health", s.httpServer.Addr)
	if s.apiKey != "" {
		s.log.Info("Authentication: enabled (Bearer token)")
	} else {
		s.log.Info("Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps ledger and account sentinels to client errors and
// logs everything else as a server fault.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, models.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Errorw("Request failed", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
