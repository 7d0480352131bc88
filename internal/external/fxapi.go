package external

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kjannette/bullionaire-backend/internal/httputil"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/shopspring/decimal"
)

const fxTimeLayout = "2006-01-02 15:04:05"

type FxAPIOptions struct {
	BaseURL  string
	APIKey   string
	Interval string
	Timeout  time.Duration
}

// FxAPIClient fetches OHLC candles for spot metals and FX pairs.
type FxAPIClient struct {
	client   *resty.Client
	apiKey   string
	interval string
}

func NewFxAPIClient(opts FxAPIOptions) *FxAPIClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Interval == "" {
		opts.Interval = "1min"
	}

	client := httputil.NewClient("fxapi", opts.Timeout, httputil.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    4 * time.Second,
	}).SetBaseURL(opts.BaseURL)

	return &FxAPIClient{client: client, apiKey: opts.APIKey, interval: opts.Interval}
}

type fxCandle struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

type fxTimeSeries struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Values  []fxCandle `json:"values"`
}

// GetCandles returns up to count candles for symbol, oldest first.
func (c *FxAPIClient) GetCandles(ctx context.Context, symbol string, count int) ([]models.Candle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fxapi: API key not configured")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     fxSymbol(symbol),
			"interval":   c.interval,
			"outputsize": strconv.Itoa(count),
			"apikey":     c.apiKey,
		}).
		Get("/time_series")
	if err := httputil.Check(resp, err); err != nil {
		return nil, fmt.Errorf("fxapi fetch: %w", err)
	}

	var data fxTimeSeries
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if data.Status == "error" {
		return nil, fmt.Errorf("fxapi error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("fxapi returned no candles for %s", symbol)
	}

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		cd, err := v.toCandle()
		if err != nil {
			return nil, err
		}
		candles = append(candles, cd)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

func (v fxCandle) toCandle() (models.Candle, error) {
	ts, err := time.ParseInLocation(fxTimeLayout, v.Datetime, time.UTC)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse candle time %q: %w", v.Datetime, err)
	}
	var out [4]float64
	for i, s := range []string{v.Open, v.High, v.Low, v.Close} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parse candle price %q: %w", s, err)
		}
		out[i] = d.InexactFloat64()
	}
	return models.Candle{Time: ts, Open: out[0], High: out[1], Low: out[2], Close: out[3]}, nil
}

// fxSymbol turns XAUUSD into the XAU/USD form the API expects.
func fxSymbol(symbol string) string {
	if len(symbol) == 6 {
		return symbol[:3] + "/" + symbol[3:]
	}
	return symbol
}
