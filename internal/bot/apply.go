package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/kjannette/bullionaire-backend/internal/risk"
)

const (
	msgOpenIncomplete = "WARNING: AI decided to open but provided incomplete details."
	msgOpenWhileOpen  = "WARNING: AI decided to open but a position is already open."
	msgCloseNoTrade   = "WARNING: AI decided to close but there was no open trade."
)

// apply maps a validated decision onto ledger, outbox and log writes. Oracle
// contract and invariant violations are logged as UPDATE warnings and return
// nil; only infrastructure failures are returned.
func (c *Controller) apply(ctx context.Context, acct *models.Account, res models.DecisionResult, snap models.MarketSnapshot, open *models.Position) error {
	switch res.Decision {
	case models.DecisionOpenBuy, models.DecisionOpenSell:
		return c.applyOpen(ctx, acct, res, snap, open)
	case models.DecisionClose:
		return c.applyClose(ctx, res, snap, open)
	case models.DecisionWait:
		return nil
	}
	c.rec.Record(c.accountID, models.ActivityUpdate,
		fmt.Sprintf("WARNING: AI returned an unknown decision %q.", res.Decision))
	return nil
}

func (c *Controller) applyOpen(ctx context.Context, acct *models.Account, res models.DecisionResult, snap models.MarketSnapshot, open *models.Position) error {
	td := res.TradeDetails
	if !td.Complete() {
		c.rec.Record(c.accountID, models.ActivityUpdate, msgOpenIncomplete)
		return nil
	}
	if open != nil {
		c.rec.Record(c.accountID, models.ActivityUpdate, msgOpenWhileOpen)
		return nil
	}

	if err := c.guard.PreOpenCheck(ctx, c.accountID, risk.LimitsFor(acct.Limits()), *td.Volume); err != nil {
		if errors.Is(err, risk.ErrTradeBlocked) {
			c.rec.Record(c.accountID, models.ActivityUpdate, "WARNING: "+err.Error())
			return nil
		}
		return err
	}

	price := c.latestPrice(ctx, snap)
	now := c.now()
	pos := &models.Position{
		ID:              uuid.NewString(),
		AccountID:       c.accountID,
		Symbol:          c.opts.Symbol,
		Direction:       res.Decision.Direction(),
		Volume:          *td.Volume,
		EntryPrice:      price,
		StopLoss:        td.StopLoss,
		TakeProfit:      td.TakeProfit,
		ConfidenceLevel: td.ConfidenceLevel,
		Status:          models.StatusOpen,
		OpenedAt:        now,
	}
	cmd := models.NewOpenCommand(pos, now)

	wctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	if _, err := c.ledger.AppendOpenPosition(wctx, pos, &cmd); err != nil {
		if errors.Is(err, models.ErrPositionAlreadyOpen) {
			c.rec.Record(c.accountID, models.ActivityUpdate, msgOpenWhileOpen)
			return nil
		}
		return fmt.Errorf("append open position: %w", err)
	}

	c.rec.Record(c.accountID, models.ActivityResult,
		fmt.Sprintf("EXECUTION: Sent %s command to queue. SL: %s, TP: %s",
			res.Decision, formatPrice(*td.StopLoss), formatPrice(*td.TakeProfit)))
	c.log.Infow("Position opened", "account", c.accountID, "position", pos.ID,
		"direction", pos.Direction, "volume", pos.Volume, "entry", pos.EntryPrice)
	return nil
}

func (c *Controller) applyClose(ctx context.Context, res models.DecisionResult, snap models.MarketSnapshot, open *models.Position) error {
	if open == nil {
		c.rec.Record(c.accountID, models.ActivityUpdate, msgCloseNoTrade)
		return nil
	}

	exit := c.latestPrice(ctx, snap)
	profit := ComputeProfit(open.EntryPrice, exit, open.Direction, open.Volume, c.opts.PipMultiplier)
	now := c.now()
	cmd := models.NewCloseCommand(open.ID, now)

	wctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	err := c.ledger.SettlePosition(wctx, open.ID, models.Settlement{ExitPrice: exit, Profit: profit, ClosedAt: now}, &cmd)
	switch {
	case errors.Is(err, models.ErrPositionAlreadySettled), errors.Is(err, models.ErrPositionNotFound):
		c.rec.Record(c.accountID, models.ActivityUpdate,
			fmt.Sprintf("WARNING: AI decided to close trade %s but it is no longer open.", open.ID))
		return nil
	case err != nil:
		return fmt.Errorf("settle position: %w", err)
	}

	c.rec.Record(c.accountID, models.ActivityResult,
		fmt.Sprintf("EXECUTION: Sent CLOSE command for trade %s. Estimated P/L: $%s", open.ID, FormatMoney(profit)))
	c.log.Infow("Position closed", "account", c.accountID, "position", open.ID,
		"exit", exit, "profit", profit)
	return nil
}

// latestPrice refreshes the price for execution from live data only. A
// degraded cycle executes at the price the oracle saw, and a synthetic
// refresh never replaces a live cycle price.
func (c *Controller) latestPrice(ctx context.Context, cycle models.MarketSnapshot) float64 {
	if cycle.Synthetic {
		return cycle.Price
	}
	sctx, cancel := context.WithTimeout(ctx, c.opts.SnapshotTimeout)
	defer cancel()
	fresh := c.market.Snapshot(sctx)
	if fresh.Synthetic {
		return cycle.Price
	}
	return fresh.Price
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
