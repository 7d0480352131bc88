package risk

import (
	"context"
	"errors"
	"fmt"

	"github.com/kjannette/bullionaire-backend/internal/models"
)

var ErrTradeBlocked = errors.New("trade blocked")

// DailyPnLSource abstracts the realized P/L lookup so Guardian can be tested
// without a ledger.
type DailyPnLSource interface {
	TodaysRealizedPnL(ctx context.Context, accountID string) (float64, error)
}

// Limits holds the per-account thresholds. A zero field disables that check.
type Limits struct {
	MaxPositionSize   float64
	DailyRiskLimit    float64
	DailyProfitTarget float64
}

func LimitsFor(l models.AccountLimits) Limits {
	return Limits{
		MaxPositionSize:   l.MaxPositionSize,
		DailyRiskLimit:    l.DailyRiskLimit,
		DailyProfitTarget: l.DailyProfitTarget,
	}
}

type Guardian struct {
	pnl DailyPnLSource
}

func NewGuardian(pnl DailyPnLSource) *Guardian {
	return &Guardian{pnl: pnl}
}

// PreOpenCheck validates an OPEN before it reaches the ledger.
// Returns nil if the open is allowed, an ErrTradeBlocked error otherwise.
func (g *Guardian) PreOpenCheck(ctx context.Context, accountID string, limits Limits, volume float64) error {
	if limits.MaxPositionSize > 0 && volume > limits.MaxPositionSize {
		return fmt.Errorf("%w: volume %.2f exceeds max position size %.2f",
			ErrTradeBlocked, volume, limits.MaxPositionSize)
	}

	if g.pnl == nil || (limits.DailyRiskLimit <= 0 && limits.DailyProfitTarget <= 0) {
		return nil
	}
	pnl, err := g.pnl.TodaysRealizedPnL(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%w: unable to verify today's P/L: %v", ErrTradeBlocked, err)
	}
	return DailyCheck(limits, pnl)
}

// DailyCheck evaluates the daily circuit breakers against today's realized P/L.
func DailyCheck(limits Limits, todaysPnL float64) error {
	if limits.DailyRiskLimit > 0 && todaysPnL <= -limits.DailyRiskLimit {
		return fmt.Errorf("%w: daily risk limit reached (P/L $%.2f, limit -$%.2f)",
			ErrTradeBlocked, todaysPnL, limits.DailyRiskLimit)
	}
	if limits.DailyProfitTarget > 0 && todaysPnL >= limits.DailyProfitTarget {
		return fmt.Errorf("%w: daily profit target reached (P/L $%.2f, target $%.2f)",
			ErrTradeBlocked, todaysPnL, limits.DailyProfitTarget)
	}
	return nil
}
