package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/bot"
	"github.com/kjannette/bullionaire-backend/internal/localstore"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrading struct {
	mu       sync.Mutex
	accounts AccountStore
	active   map[string]bool
}

func (f *fakeTrading) StartTrading(ctx context.Context, id string) error {
	if _, err := f.accounts.Get(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[id] = true
	return nil
}

func (f *fakeTrading) PauseTrading(ctx context.Context, id string) error {
	if _, err := f.accounts.Get(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[id] = false
	return nil
}

func (f *fakeTrading) Status(ctx context.Context, id string) (bot.Status, error) {
	if _, err := f.accounts.Get(ctx, id); err != nil {
		return bot.Status{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st := bot.Status{AccountID: id, State: bot.StateIdle, Active: f.active[id]}
	if st.Active {
		st.State = bot.StateSleeping
	}
	return st, nil
}

func (f *fakeTrading) ActiveAccounts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, on := range f.active {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	store   *localstore.Store
	handler http.Handler
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()
	store, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	accounts := store.Accounts()
	s := NewServer(Options{APIKey: apiKey}, Stores{
		Accounts:   accounts,
		Positions:  store.Positions(),
		Activities: store.Activities(),
		Commands:   store.Commands(),
		DB:         store,
	}, &fakeTrading{accounts: accounts, active: map[string]bool{}})
	return &testServer{store: store, handler: s.Handler()}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createAccount(t *testing.T) models.Account {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/v1/accounts", `{"userProfileId":"user-1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var a models.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &a))
	return a
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	rr := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "connected", body.Database.Status)
	assert.Empty(t, body.ActiveAccounts)

	a := ts.createAccount(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/v1/accounts/"+a.ID+"/trading/start", "").Code)

	rr = ts.do(t, http.MethodGet, "/health", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{a.ID}, body.ActiveAccounts)
}

func TestHealthDegraded(t *testing.T) {
	s := NewServer(Options{}, Stores{DB: failingPinger{}}, &fakeTrading{active: map[string]bool{}})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "disconnected", body.Database.Status)
	assert.Equal(t, "connection refused", body.Database.Error)
}

func TestAccountRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	a := ts.createAccount(t)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.DefaultStartingBalance, a.CurrentBalance)
	assert.False(t, a.AutoTradingActive)

	rr := ts.do(t, http.MethodGet, "/v1/accounts/"+a.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodGet, "/v1/users/user-1/account", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), a.ID)

	rr = ts.do(t, http.MethodGet, "/v1/accounts/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/v1/accounts", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateLimits(t *testing.T) {
	ts := newTestServer(t, "")
	a := ts.createAccount(t)

	rr := ts.do(t, http.MethodPut, "/v1/accounts/"+a.ID+"/limits",
		`{"currentBalance":5000,"dailyProfitTarget":200,"dailyRiskLimit":100,"maxPositionSize":0.5}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated models.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 100.0, updated.DailyRiskLimit)
	assert.Equal(t, 0.5, updated.MaxPositionSize)

	rr = ts.do(t, http.MethodPut, "/v1/accounts/"+a.ID+"/limits",
		`{"currentBalance":5000,"dailyProfitTarget":200,"dailyRiskLimit":0,"maxPositionSize":0.5}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "dailyRiskLimit")
}

func TestTradingRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	a := ts.createAccount(t)

	rr := ts.do(t, http.MethodPost, "/v1/accounts/"+a.ID+"/trading/start", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var st bot.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.True(t, st.Active)

	rr = ts.do(t, http.MethodPost, "/v1/accounts/"+a.ID+"/trading/pause", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.False(t, st.Active)
	assert.Equal(t, bot.StateIdle, st.State)

	rr = ts.do(t, http.MethodPost, "/v1/accounts/missing/trading/start", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLedgerRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	a := ts.createAccount(t)
	ctx := context.Background()

	rr := ts.do(t, http.MethodGet, "/v1/accounts/"+a.ID+"/positions/open", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"position":null}`, rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/v1/accounts/"+a.ID+"/positions/closed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	sl, tp := 1945.0, 1965.0
	p := &models.Position{
		ID: "pos-1", AccountID: a.ID, Symbol: models.DefaultSymbol, Direction: models.DirectionBuy,
		Volume: 0.1, EntryPrice: 1950, StopLoss: &sl, TakeProfit: &tp, ConfidenceLevel: "High",
		OpenedAt: time.Now().UTC(),
	}
	cmd := models.NewOpenCommand(p, p.OpenedAt)
	_, err := ts.store.Positions().AppendOpenPosition(ctx, p, &cmd)
	require.NoError(t, err)

	rr = ts.do(t, http.MethodGet, "/v1/accounts/"+a.ID+"/positions/open", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var open openPositionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &open))
	require.NotNil(t, open.Position)
	assert.Equal(t, "pos-1", open.Position.ID)

	rr = ts.do(t, http.MethodGet, "/v1/accounts/"+a.ID+"/activities?limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []models.ActivityLogEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rr = ts.do(t, http.MethodGet, "/v1/accounts/missing/activities", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCommandRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()

	rr := ts.do(t, http.MethodGet, "/v1/commands/current", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	cmd := models.NewCloseCommand("pos-9", time.UnixMilli(42))
	require.NoError(t, ts.store.Commands().Publish(ctx, &cmd))

	rr = ts.do(t, http.MethodGet, "/v1/commands/current", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"action":"CLOSE","timestamp":42,"details":{"positionRef":"pos-9"}}`,
		strings.TrimSpace(rr.Body.String()))

	rr = ts.do(t, http.MethodGet, "/v1/commands/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var history []models.CommandRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rr = ts.do(t, http.MethodDelete, "/v1/commands/current", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"cleared":true}`, rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/v1/commands/current", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t, "secret")

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "").Code)

	rr := ts.do(t, http.MethodGet, "/v1/commands/current", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/commands/current", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
