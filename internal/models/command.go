package models

import (
	"encoding/json"
	"time"
)

type CommandAction string

const (
	CommandOpen  CommandAction = "OPEN"
	CommandClose CommandAction = "CLOSE"
)

// TradeCommand is the instruction left for the execution bridge. Its JSON
// encoding is the bridge wire format.
type TradeCommand struct {
	Action    CommandAction  `json:"action"`
	Timestamp int64          `json:"timestamp"`
	Details   CommandDetails `json:"details"`
}

// CommandDetails carries the OPEN fields or, for CLOSE, only PositionRef.
type CommandDetails struct {
	Symbol      string     `json:"symbol,omitempty"`
	Volume      *float64   `json:"volume,omitempty"`
	Type        *Direction `json:"type,omitempty"`
	StopLoss    *float64   `json:"stopLoss,omitempty"`
	TakeProfit  *float64   `json:"takeProfit,omitempty"`
	PositionRef string     `json:"positionRef,omitempty"`
}

func NewOpenCommand(p *Position, issuedAt time.Time) TradeCommand {
	vol := p.Volume
	dir := p.Direction
	return TradeCommand{
		Action:    CommandOpen,
		Timestamp: issuedAt.UnixMilli(),
		Details: CommandDetails{
			Symbol:      p.Symbol,
			Volume:      &vol,
			Type:        &dir,
			StopLoss:    p.StopLoss,
			TakeProfit:  p.TakeProfit,
			PositionRef: p.ID,
		},
	}
}

func NewCloseCommand(positionID string, issuedAt time.Time) TradeCommand {
	return TradeCommand{
		Action:    CommandClose,
		Timestamp: issuedAt.UnixMilli(),
		Details:   CommandDetails{PositionRef: positionID},
	}
}

// IssuedAt converts the epoch-millisecond timestamp back to a time.
func (c TradeCommand) IssuedAt() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// CommandRecord is a published command as kept in the history table.
type CommandRecord struct {
	ID        int64           `json:"id"`
	Action    CommandAction   `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	IssuedAt  time.Time       `json:"issuedAt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CommandSlot is the well-known key of the single command slot the bridge polls.
const CommandSlot = "bullionaire-bot-commands/trade-command"
