package external_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/external"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFxAPIGetCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "XAU/USD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "3", r.URL.Query().Get("outputsize"))
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","values":[
			{"datetime":"2024-01-15 10:02:00","open":"1951.0","high":"1952.5","low":"1950.5","close":"1952.0"},
			{"datetime":"2024-01-15 10:01:00","open":"1950.5","high":"1951.5","low":"1950.0","close":"1951.0"},
			{"datetime":"2024-01-15 10:00:00","open":"1950.0","high":"1951.0","low":"1949.5","close":"1950.5"}
		]}`))
	}))
	defer srv.Close()

	client := external.NewFxAPIClient(external.FxAPIOptions{BaseURL: srv.URL, APIKey: "k"})
	candles, err := client.GetCandles(context.Background(), "XAUUSD", 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 1950.5, candles[0].Close)
	assert.Equal(t, 1952.0, candles[2].Close)
	assert.Equal(t, 1952.5, candles[2].High)
}

func TestFxAPIErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"invalid api key"}`))
	}))
	defer srv.Close()

	client := external.NewFxAPIClient(external.FxAPIOptions{BaseURL: srv.URL, APIKey: "bad"})
	_, err := client.GetCandles(context.Background(), "XAUUSD", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestFxAPIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"values":[{"datetime":"2024-01-15 10:00:00","open":"1","high":"1","low":"1","close":"1"}]}`))
	}))
	defer srv.Close()

	client := external.NewFxAPIClient(external.FxAPIOptions{BaseURL: srv.URL, APIKey: "k"})
	candles, err := client.GetCandles(context.Background(), "XAUUSD", 1)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFxAPIRequiresKey(t *testing.T) {
	client := external.NewFxAPIClient(external.FxAPIOptions{BaseURL: "http://127.0.0.1:1"})
	_, err := client.GetCandles(context.Background(), "XAUUSD", 1)
	assert.Error(t, err)
}
