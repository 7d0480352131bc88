package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/kjannette/bullionaire-backend/internal/oracle"
	"github.com/kjannette/bullionaire-backend/internal/scheduler"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle      State = "IDLE"
	StateAnalyzing State = "ANALYZING"
	StateExecuting State = "EXECUTING"
	StateSleeping  State = "SLEEPING"
)

const msgAnalyzing = "Analyzing market data..."

type Options struct {
	Symbol          string
	Interval        time.Duration
	SnapshotTimeout time.Duration
	OracleTimeout   time.Duration
	WriteTimeout    time.Duration
	PipMultiplier   float64
}

func (o Options) withDefaults() Options {
	if o.Symbol == "" {
		o.Symbol = models.DefaultSymbol
	}
	if o.Interval <= 0 {
		o.Interval = 15 * time.Second
	}
	if o.SnapshotTimeout <= 0 {
		o.SnapshotTimeout = 10 * time.Second
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PipMultiplier <= 0 {
		o.PipMultiplier = PipMultiplier
	}
	return o
}

// Deps are the collaborators a controller drives. All are required.
type Deps struct {
	Accounts AccountStore
	Ledger   Ledger
	Market   SnapshotProvider
	Oracle   oracle.Oracle
	Guard    OpenGuard
	PnL      DailyPnL
	Recorder ActivityRecorder
	Notifier Notifier
}

// Status is a point-in-time view of one controller.
type Status struct {
	AccountID   string     `json:"tradingAccountId"`
	State       State      `json:"state"`
	Active      bool       `json:"active"`
	Cycles      int64      `json:"cycles"`
	Failures    int64      `json:"failures"`
	LastError   string     `json:"lastError,omitempty"`
	LastCycleAt *time.Time `json:"lastCycleAt,omitempty"`
	NextCycleAt *time.Time `json:"nextCycleAt,omitempty"`
}

// Controller runs the decision cycle for one trading account. Cycles for the
// same account never overlap.
type Controller struct {
	accountID string
	opts      Options

	accounts AccountStore
	ledger   Ledger
	market   SnapshotProvider
	oracle   oracle.Oracle
	guard    OpenGuard
	pnl      DailyPnL
	rec      ActivityRecorder
	notify   Notifier

	loop    *scheduler.Loop
	cycleMu sync.Mutex
	now     func() time.Time
	log     *zap.SugaredLogger

	mu           sync.RWMutex
	state        State
	cycles       int64
	failures     int64
	lastErr      string
	lastCycleAt  time.Time
	nextCycleAt  time.Time
	onTransition func(State)
}

func NewController(accountID string, deps Deps, opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		accountID: accountID,
		opts:      opts,
		accounts:  deps.Accounts,
		ledger:    deps.Ledger,
		market:    deps.Market,
		oracle:    deps.Oracle,
		guard:     deps.Guard,
		pnl:       deps.PnL,
		rec:       deps.Recorder,
		notify:    deps.Notifier,
		now:       time.Now,
		state:     StateIdle,
		log:       logger.Named("CYCLE").With("account", accountID),
	}
	c.loop = scheduler.NewLoop("cycle "+accountID, scheduler.LoopConfig{
		Interval: opts.Interval,
		Run:      c.tick,
		OnSleep: func(next time.Time) {
			c.mu.Lock()
			c.nextCycleAt = next
			c.mu.Unlock()
			c.setState(StateSleeping)
		},
		OnStop: func() {
			c.mu.Lock()
			c.nextCycleAt = time.Time{}
			c.mu.Unlock()
			c.setState(StateIdle)
		},
	})
	return c
}

// Start begins cycling immediately. It reports false if already active.
func (c *Controller) Start(ctx context.Context) bool {
	return c.loop.Start(ctx)
}

// Pause stops the controller after the cycle in progress, if any, completes.
func (c *Controller) Pause() {
	c.loop.Stop()
}

func (c *Controller) Active() bool {
	return c.loop.Running()
}

// Wait blocks until the loop goroutine has exited after Pause or context
// cancellation.
func (c *Controller) Wait() {
	c.loop.Wait()
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		AccountID:   c.accountID,
		State:       c.state,
		Active:      c.loop.Running(),
		Cycles:      c.cycles,
		Failures:    c.failures,
		LastError:   c.lastErr,
		LastCycleAt: timePtr(c.lastCycleAt),
		NextCycleAt: timePtr(c.nextCycleAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	hook := c.onTransition
	c.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// tick is the loop body: one cycle plus failure reporting.
func (c *Controller) tick(ctx context.Context) {
	err := c.RunCycle(ctx)

	c.mu.Lock()
	c.cycles++
	c.lastCycleAt = c.now()
	if err != nil {
		c.failures++
		c.lastErr = err.Error()
	} else {
		c.lastErr = ""
	}
	c.mu.Unlock()

	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		c.log.Debugw("Cycle interrupted by shutdown", "error", err)
		return
	}
	c.log.Errorw("Cycle failed", "error", err)
	c.rec.Record(c.accountID, models.ActivityError, "ERROR: Cycle failed: "+err.Error())
	c.notify.CycleFailed(c.accountID, err)
}

// RunCycle performs one analyze and execute pass. Any failure aborts this
// cycle only; panics from collaborators are returned as errors.
func (c *Controller) RunCycle(ctx context.Context) (err error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	c.setState(StateAnalyzing)
	c.rec.Record(c.accountID, models.ActivityAnalysis, msgAnalyzing)

	acct, err := c.accounts.Get(ctx, c.accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	snap := c.snapshot(ctx)

	open, err := c.ledger.FindOpenPosition(ctx, c.accountID)
	if err != nil {
		return fmt.Errorf("find open position: %w", err)
	}

	todays, err := c.pnl.TodaysRealizedPnL(ctx, c.accountID)
	if err != nil {
		return fmt.Errorf("today's realized P/L: %w", err)
	}

	in := models.OracleInput{
		AccountID:         c.accountID,
		Limits:            acct.Limits(),
		TodaysRealizedPnL: todays,
		OpenPosition:      c.openContext(open, snap),
		Market:            snap,
		CurrentTime:       c.now().UTC(),
	}

	octx, cancel := context.WithTimeout(ctx, c.opts.OracleTimeout)
	res, err := c.oracle.Decide(octx, in)
	cancel()
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}

	c.rec.Record(c.accountID, models.ActivitySignal,
		fmt.Sprintf("AI Decision: %s. Reasoning: %s", res.Decision, res.Reasoning))
	c.log.Infow("Decision", "decision", res.Decision, "price", snap.Price, "trend", snap.Trend)

	c.setState(StateExecuting)
	return c.apply(ctx, acct, res, snap, open)
}

func (c *Controller) snapshot(ctx context.Context) models.MarketSnapshot {
	sctx, cancel := context.WithTimeout(ctx, c.opts.SnapshotTimeout)
	defer cancel()
	snap := c.market.Snapshot(sctx)
	if snap.Synthetic {
		c.log.Warnw("Market data degraded, using synthetic snapshot", "price", snap.Price)
		c.rec.Record(c.accountID, models.ActivityUpdate,
			"WARNING: Live market data unavailable. Using a synthetic fallback snapshot.")
	}
	return snap
}

func (c *Controller) openContext(open *models.Position, snap models.MarketSnapshot) *models.OpenPositionContext {
	if open == nil {
		return nil
	}
	return &models.OpenPositionContext{
		Position:        *open,
		UnrealizedPnL:   ComputeProfit(open.EntryPrice, snap.Price, open.Direction, open.Volume, c.opts.PipMultiplier),
		DurationMinutes: DurationMinutes(open.OpenedAt, c.now()),
	}
}
