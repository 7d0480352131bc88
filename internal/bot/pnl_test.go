package bot

import (
	"context"
	"testing"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProfit(t *testing.T) {
	assert.Equal(t, 50.0, ComputeProfit(1950, 1955, models.DirectionBuy, 0.1, PipMultiplier))
	assert.Equal(t, -50.0, ComputeProfit(1950, 1955, models.DirectionSell, 0.1, PipMultiplier))
	assert.Equal(t, 50.0, ComputeProfit(1955, 1950, models.DirectionSell, 0.1, PipMultiplier))
	assert.Equal(t, 0.5, ComputeProfit(1950, 1955, models.DirectionBuy, 0.1, 1))
	assert.Equal(t, 0.0, ComputeProfit(1950, 1950, models.DirectionBuy, 1, PipMultiplier))
}

func TestComputeProfit_FloatOrder(t *testing.T) {
	cases := []struct {
		entry, exit, volume float64
		dir                 models.Direction
	}{
		{1950.1, 1950.3, 0.1, models.DirectionBuy},
		{2031.47, 2029.93, 0.07, models.DirectionBuy},
		{2031.47, 2029.93, 0.07, models.DirectionSell},
		{1987.654, 1991.002, 0.33, models.DirectionSell},
	}
	for _, tc := range cases {
		// operands are variables so the expected value is float64 arithmetic,
		// not an exact constant expression
		want := (tc.exit - tc.entry) * tc.dir.Sign() * tc.volume * PipMultiplier
		assert.Equal(t, want, ComputeProfit(tc.entry, tc.exit, tc.dir, tc.volume, PipMultiplier),
			"%v -> %v %s %v", tc.entry, tc.exit, tc.dir, tc.volume)
	}

	entry, exit, volume := 1950.1, 1950.3, 0.1
	assert.NotEqual(t, 2.0, ComputeProfit(entry, exit, models.DirectionBuy, volume, PipMultiplier))
	assert.Equal(t, "2.00", FormatMoney(ComputeProfit(entry, exit, models.DirectionBuy, volume, PipMultiplier)))
}

func TestDurationMinutes(t *testing.T) {
	opened := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(0), DurationMinutes(opened, opened.Add(59*time.Second)))
	assert.Equal(t, int64(12), DurationMinutes(opened, opened.Add(12*time.Minute+30*time.Second)))
	assert.Equal(t, int64(0), DurationMinutes(opened, opened.Add(-time.Minute)))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "50.00", FormatMoney(50))
	assert.Equal(t, "-12.35", FormatMoney(-12.345))
	assert.Equal(t, "0.00", FormatMoney(0))
}

func TestTodaysRealizedPnL(t *testing.T) {
	ctx := context.Background()
	ledger := &memLedger{}
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	// trading day began 2026-03-02 22:00 UTC
	settle := func(id string, closedAt time.Time, profit float64) {
		_, err := ledger.AppendOpenPosition(ctx, &models.Position{ID: id, AccountID: "acct", Status: models.StatusOpen}, &models.TradeCommand{})
		require.NoError(t, err)
		require.NoError(t, ledger.SettlePosition(ctx, id, models.Settlement{ClosedAt: closedAt, Profit: profit}, &models.TradeCommand{}))
	}
	settle("yesterday", time.Date(2026, 3, 2, 21, 59, 0, 0, time.UTC), 1000)
	settle("a", time.Date(2026, 3, 2, 22, 30, 0, 0, time.UTC), 50)
	settle("b", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), -20.25)

	p := NewPnL(ledger, 22)
	p.now = func() time.Time { return now }

	got, err := p.TodaysRealizedPnL(ctx, "acct")
	require.NoError(t, err)
	assert.Equal(t, 29.75, got)

	other, err := p.TodaysRealizedPnL(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, other)
}
