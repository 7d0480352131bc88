package models

import "time"

type Decision string

const (
	DecisionOpenBuy  Decision = "OPEN_BUY"
	DecisionOpenSell Decision = "OPEN_SELL"
	DecisionClose    Decision = "CLOSE"
	DecisionWait     Decision = "WAIT"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionOpenBuy, DecisionOpenSell, DecisionClose, DecisionWait:
		return true
	}
	return false
}

// Direction returns the position side an OPEN decision asks for.
func (d Decision) Direction() Direction {
	if d == DecisionOpenSell {
		return DirectionSell
	}
	return DirectionBuy
}

type TradeDetails struct {
	Symbol          string   `json:"symbol,omitempty"`
	Volume          *float64 `json:"volume,omitempty"`
	ConfidenceLevel string   `json:"confidenceLevel,omitempty"`
	StopLoss        *float64 `json:"stopLoss,omitempty"`
	TakeProfit      *float64 `json:"takeProfit,omitempty"`
}

// Complete reports whether every field an OPEN needs is populated.
// Zero prices and volumes count as missing.
func (t *TradeDetails) Complete() bool {
	if t == nil {
		return false
	}
	return positive(t.Volume) && t.ConfidenceLevel != "" && positive(t.StopLoss) && positive(t.TakeProfit)
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

// DecisionResult is the oracle's answer for one cycle. It is never persisted.
type DecisionResult struct {
	Decision     Decision      `json:"decision"`
	Reasoning    string        `json:"reasoning"`
	TradeDetails *TradeDetails `json:"tradeDetails,omitempty"`
}

// OpenPositionContext is the open position as presented to the oracle.
type OpenPositionContext struct {
	Position
	UnrealizedPnL   float64 `json:"unrealizedPnL"`
	DurationMinutes int64   `json:"durationMinutes"`
}

type OracleInput struct {
	AccountID         string               `json:"tradingAccountId"`
	Limits            AccountLimits        `json:"account"`
	TodaysRealizedPnL float64              `json:"todaysPnL"`
	OpenPosition      *OpenPositionContext `json:"openTrade,omitempty"`
	Market            MarketSnapshot       `json:"marketData"`
	CurrentTime       time.Time            `json:"currentTime"`
}
