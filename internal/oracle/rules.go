package oracle

import (
	"context"
	"fmt"
	"math"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/shopspring/decimal"
)

type RuleOptions struct {
	PipMultiplier float64
	// RiskPerTrade is the share of the daily risk limit one stop-out may cost.
	RiskPerTrade float64
	// StopATR and TargetATR size the stop and target in multiples of ATR.
	StopATR   float64
	TargetATR float64
	MinStop   float64
	MinVolume float64
}

var DefaultRuleOptions = RuleOptions{
	PipMultiplier: 100,
	RiskPerTrade:  0.25,
	StopATR:       1.5,
	TargetATR:     3.0,
	MinStop:       1.0,
	MinVolume:     0.01,
}

// RuleOracle trades the EMA9/EMA21 trend filtered by RSI. It is deterministic
// and needs no network access.
type RuleOracle struct {
	opts RuleOptions
}

func NewRuleOracle(opts RuleOptions) *RuleOracle {
	if opts.PipMultiplier <= 0 {
		opts.PipMultiplier = DefaultRuleOptions.PipMultiplier
	}
	if opts.RiskPerTrade <= 0 {
		opts.RiskPerTrade = DefaultRuleOptions.RiskPerTrade
	}
	if opts.StopATR <= 0 {
		opts.StopATR = DefaultRuleOptions.StopATR
	}
	if opts.TargetATR <= 0 {
		opts.TargetATR = DefaultRuleOptions.TargetATR
	}
	if opts.MinStop <= 0 {
		opts.MinStop = DefaultRuleOptions.MinStop
	}
	if opts.MinVolume <= 0 {
		opts.MinVolume = DefaultRuleOptions.MinVolume
	}
	return &RuleOracle{opts: opts}
}

func (o *RuleOracle) Decide(ctx context.Context, in models.OracleInput) (models.DecisionResult, error) {
	if err := ctx.Err(); err != nil {
		return models.DecisionResult{}, err
	}
	m := in.Market

	if m.Synthetic {
		if in.OpenPosition != nil {
			return wait("Market data is synthetic; holding the open position until live prices return."), nil
		}
		return wait("Market data is synthetic; no new exposure on fabricated prices."), nil
	}

	if in.OpenPosition != nil {
		return o.manage(in), nil
	}

	if in.TodaysRealizedPnL <= -in.Limits.DailyRiskLimit {
		return wait(fmt.Sprintf("Daily risk limit of $%.2f reached (today's P/L $%.2f).", in.Limits.DailyRiskLimit, in.TodaysRealizedPnL)), nil
	}
	if in.TodaysRealizedPnL >= in.Limits.DailyProfitTarget {
		return wait(fmt.Sprintf("Daily profit target of $%.2f reached (today's P/L $%.2f).", in.Limits.DailyProfitTarget, in.TodaysRealizedPnL)), nil
	}

	switch {
	case m.Trend == models.TrendUp && m.RSI >= 50 && m.RSI < 70:
		return o.open(models.DecisionOpenBuy, in), nil
	case m.Trend == models.TrendDown && m.RSI > 30 && m.RSI <= 50:
		return o.open(models.DecisionOpenSell, in), nil
	}
	return wait(fmt.Sprintf("No clear setup: trend %s, RSI %.1f.", m.Trend, m.RSI)), nil
}

func (o *RuleOracle) manage(in models.OracleInput) models.DecisionResult {
	pos, m := in.OpenPosition, in.Market

	if pos.StopLoss != nil && crossed(pos.Direction, m.Price, *pos.StopLoss, true) {
		return closeWith(fmt.Sprintf("Price %.2f breached the stop at %.2f.", m.Price, *pos.StopLoss))
	}
	if pos.TakeProfit != nil && crossed(pos.Direction, m.Price, *pos.TakeProfit, false) {
		return closeWith(fmt.Sprintf("Price %.2f reached the target at %.2f.", m.Price, *pos.TakeProfit))
	}

	against := (pos.Direction == models.DirectionBuy && m.Trend == models.TrendDown) ||
		(pos.Direction == models.DirectionSell && m.Trend == models.TrendUp)
	if against {
		return closeWith(fmt.Sprintf("Trend turned %s against the %s position; unrealized P/L $%.2f.", m.Trend, pos.Direction, pos.UnrealizedPnL))
	}

	exhausted := (pos.Direction == models.DirectionBuy && m.RSI >= 75) ||
		(pos.Direction == models.DirectionSell && m.RSI <= 25)
	if exhausted && pos.UnrealizedPnL > 0 {
		return closeWith(fmt.Sprintf("RSI %.1f signals exhaustion; locking in $%.2f.", m.RSI, pos.UnrealizedPnL))
	}

	return wait(fmt.Sprintf("Holding %s opened at %.2f for %d minutes; unrealized P/L $%.2f.",
		pos.Direction, pos.EntryPrice, pos.DurationMinutes, pos.UnrealizedPnL))
}

func (o *RuleOracle) open(d models.Decision, in models.OracleInput) models.DecisionResult {
	m := in.Market
	stop := math.Max(m.ATR*o.opts.StopATR, o.opts.MinStop)
	target := math.Max(m.ATR*o.opts.TargetATR, 2*o.opts.MinStop)

	risk := in.Limits.DailyRiskLimit * o.opts.RiskPerTrade
	vol := risk / (stop * o.opts.PipMultiplier)
	vol = math.Min(vol, in.Limits.MaxPositionSize)
	vol = decimal.NewFromFloat(vol).Truncate(2).InexactFloat64()
	if vol < o.opts.MinVolume {
		vol = o.opts.MinVolume
	}

	sign := d.Direction().Sign()
	sl := round2(m.Price - sign*stop)
	tp := round2(m.Price + sign*target)

	confidence := "Medium"
	if (d == models.DecisionOpenBuy && m.RSI >= 55 && m.RSI <= 65) ||
		(d == models.DecisionOpenSell && m.RSI >= 35 && m.RSI <= 45) {
		confidence = "High"
	}

	return models.DecisionResult{
		Decision: d,
		Reasoning: fmt.Sprintf("Trend %s with EMA9 %.2f vs EMA21 %.2f and RSI %.1f; stop %.2f away, target %.2f away.",
			m.Trend, m.EMA9, m.EMA21, m.RSI, stop, target),
		TradeDetails: &models.TradeDetails{
			Symbol:          m.Symbol,
			Volume:          &vol,
			ConfidenceLevel: confidence,
			StopLoss:        &sl,
			TakeProfit:      &tp,
		},
	}
}

// crossed reports whether price is at or beyond level on the losing side
// (stop) or the winning side (target) for dir.
func crossed(dir models.Direction, price, level float64, stop bool) bool {
	losing := (dir == models.DirectionBuy) == stop
	if losing {
		return price <= level
	}
	return price >= level
}

func wait(reason string) models.DecisionResult {
	return models.DecisionResult{Decision: models.DecisionWait, Reasoning: reason}
}

func closeWith(reason string) models.DecisionResult {
	return models.DecisionResult{Decision: models.DecisionClose, Reasoning: reason}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
