package models

import "time"

type Trend string

const (
	TrendUp       Trend = "UP"
	TrendDown     Trend = "DOWN"
	TrendSideways Trend = "SIDEWAYS"
)

// SourceFallback marks a snapshot fabricated because the provider failed.
const SourceFallback = "fallback"

type MarketSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	EMA9      float64   `json:"ema9"`
	EMA21     float64   `json:"ema21"`
	RSI       float64   `json:"rsi"`
	ATR       float64   `json:"atr"`
	Trend     Trend     `json:"trend"`
	Source    string    `json:"source"`
	Synthetic bool      `json:"synthetic"`
	Timestamp time.Time `json:"timestamp"`
}

type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}
