package bot

import (
	"context"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/shopspring/decimal"
)

// PipMultiplier converts price difference times volume into account currency
// for XAUUSD (100 oz per lot). Options.PipMultiplier overrides it.
const PipMultiplier = 100.0

// ComputeProfit is (exit - entry) * sign(direction) * volume * multiplier,
// evaluated left to right in float64 so every caller gets the same bits.
func ComputeProfit(entry, exit float64, dir models.Direction, volume, multiplier float64) float64 {
	return (exit - entry) * dir.Sign() * volume * multiplier
}

// DurationMinutes is the whole minutes elapsed since opened.
func DurationMinutes(opened, now time.Time) int64 {
	d := now.Sub(opened)
	if d < 0 {
		return 0
	}
	return int64(d / time.Minute)
}

// FormatMoney renders v with two decimals.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

type closedLister interface {
	ListClosedSince(ctx context.Context, accountID string, since time.Time) ([]models.Position, error)
}

// PnL sums realized profit for the current trading day.
type PnL struct {
	ledger     closedLister
	cutoffHour int
	now        func() time.Time
}

func NewPnL(ledger closedLister, cutoffHourUTC int) *PnL {
	return &PnL{ledger: ledger, cutoffHour: cutoffHourUTC, now: time.Now}
}

func (p *PnL) TodaysRealizedPnL(ctx context.Context, accountID string) (float64, error) {
	since := models.TradingDayStart(p.now(), p.cutoffHour)
	closed, err := p.ledger.ListClosedSince(ctx, accountID, since)
	if err != nil {
		return 0, err
	}
	total := decimal.Zero
	for _, pos := range closed {
		if pos.Profit != nil {
			total = total.Add(decimal.NewFromFloat(*pos.Profit))
		}
	}
	return total.InexactFloat64(), nil
}
