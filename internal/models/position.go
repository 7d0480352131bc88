package models

import "time"

// DefaultSymbol is the only instrument the bot trades.
const DefaultSymbol = "XAUUSD"

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Sign is -1 for SELL and +1 otherwise.
func (d Direction) Sign() float64 {
	if d == DirectionSell {
		return -1
	}
	return 1
}

type PositionStatus string

const (
	StatusOpen PositionStatus = "OPEN"
	StatusWon  PositionStatus = "WON"
	StatusLost PositionStatus = "LOST"
)

// Position is a single exposure in the traded instrument, open or settled.
// Profit, ExitPrice and ClosedAt stay nil while the position is open.
type Position struct {
	ID              string         `json:"id"`
	AccountID       string         `json:"tradingAccountId"`
	Symbol          string         `json:"symbol"`
	Direction       Direction      `json:"type"`
	Volume          float64        `json:"volume"`
	EntryPrice      float64        `json:"entryPrice"`
	ExitPrice       *float64       `json:"exitPrice"`
	StopLoss        *float64       `json:"stopLoss"`
	TakeProfit      *float64       `json:"takeProfit"`
	ConfidenceLevel string         `json:"confidenceLevel"`
	Status          PositionStatus `json:"status"`
	Profit          *float64       `json:"profit"`
	OpenedAt        time.Time      `json:"timestamp"`
	ClosedAt        *time.Time     `json:"closedAt,omitempty"`
}

func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// SettledStatus maps a realized profit to WON (>= 0) or LOST.
func SettledStatus(profit float64) PositionStatus {
	if profit >= 0 {
		return StatusWon
	}
	return StatusLost
}

// Settlement is the one-time mutation that closes a position.
type Settlement struct {
	ExitPrice float64
	Profit    float64
	ClosedAt  time.Time
}
