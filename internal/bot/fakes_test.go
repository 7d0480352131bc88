package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/kjannette/bullionaire-backend/internal/risk"
)

type memLedger struct {
	mu        sync.Mutex
	positions []*models.Position
	commands  []models.TradeCommand
}

func (l *memLedger) AppendOpenPosition(_ context.Context, p *models.Position, cmd *models.TradeCommand) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.positions {
		if existing.AccountID == p.AccountID && existing.IsOpen() {
			return "", models.ErrPositionAlreadyOpen
		}
	}
	cp := *p
	l.positions = append(l.positions, &cp)
	l.commands = append(l.commands, *cmd)
	return p.ID, nil
}

func (l *memLedger) SettlePosition(_ context.Context, id string, s models.Settlement, cmd *models.TradeCommand) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.positions {
		if p.ID != id {
			continue
		}
		if !p.IsOpen() {
			return models.ErrPositionAlreadySettled
		}
		exit, profit, closed := s.ExitPrice, s.Profit, s.ClosedAt
		p.ExitPrice, p.Profit, p.ClosedAt = &exit, &profit, &closed
		p.Status = models.SettledStatus(profit)
		l.commands = append(l.commands, *cmd)
		return nil
	}
	return models.ErrPositionNotFound
}

func (l *memLedger) FindOpenPosition(_ context.Context, accountID string) (*models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.positions {
		if p.AccountID == accountID && p.IsOpen() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *memLedger) ListClosedPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	return l.ListClosedSince(ctx, accountID, time.Time{})
}

func (l *memLedger) ListClosedSince(_ context.Context, accountID string, since time.Time) ([]models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Position
	for _, p := range l.positions {
		if p.AccountID == accountID && !p.IsOpen() && p.ClosedAt != nil && !p.ClosedAt.Before(since) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (l *memLedger) snapshot() ([]models.Position, []models.TradeCommand) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ps := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		ps = append(ps, *p)
	}
	return ps, append([]models.TradeCommand(nil), l.commands...)
}

// memActivities doubles as a synchronous recorder and a recorder sink.
type memActivities struct {
	mu      sync.Mutex
	entries []models.ActivityLogEntry
	failOn  models.ActivityType
}

func (a *memActivities) Record(accountID string, typ models.ActivityType, msg string) {
	_ = a.Append(context.Background(), &models.ActivityLogEntry{AccountID: accountID, Type: typ, Message: msg})
}

func (a *memActivities) Append(_ context.Context, e *models.ActivityLogEntry) error {
	if a.failOn != "" && e.Type == a.failOn {
		return errors.New("disk full")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *e)
	return nil
}

func (a *memActivities) all() []models.ActivityLogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.ActivityLogEntry(nil), a.entries...)
}

func (a *memActivities) ofType(t models.ActivityType) []models.ActivityLogEntry {
	var out []models.ActivityLogEntry
	for _, e := range a.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newMemAccounts(ids ...string) *memAccounts {
	m := &memAccounts{accounts: make(map[string]*models.Account)}
	for _, id := range ids {
		m.accounts[id] = models.NewAccount(id, "user-"+id)
	}
	return m
}

func (m *memAccounts) Get(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) SetAutoTrading(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.AutoTradingActive = active
	return nil
}

func (m *memAccounts) ListAutoTrading(_ context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		if a.AutoTradingActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

type staticMarket struct {
	snap models.MarketSnapshot
}

func (m staticMarket) Snapshot(context.Context) models.MarketSnapshot {
	return m.snap
}

// seqMarket hands out snapshots in order and repeats the last one.
type seqMarket struct {
	mu    sync.Mutex
	snaps []models.MarketSnapshot
	calls int
}

func (m *seqMarket) Snapshot(context.Context) models.MarketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.snaps) {
		i = len(m.snaps) - 1
	}
	m.calls++
	return m.snaps[i]
}

func syntheticSnapshot(price float64) models.MarketSnapshot {
	s := liveSnapshot(price)
	s.Trend = models.TrendSideways
	s.Source = models.SourceFallback
	s.Synthetic = true
	return s
}

type oracleFunc func(ctx context.Context, in models.OracleInput) (models.DecisionResult, error)

func (f oracleFunc) Decide(ctx context.Context, in models.OracleInput) (models.DecisionResult, error) {
	return f(ctx, in)
}

type memNotifier struct {
	mu       sync.Mutex
	messages []string
	failures []error
}

func (n *memNotifier) Send(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *memNotifier) CycleFailed(_ string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, err)
}

func (n *memNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages), len(n.failures)
}

func liveSnapshot(price float64) models.MarketSnapshot {
	return models.MarketSnapshot{
		Symbol: models.DefaultSymbol,
		Price:  price,
		EMA9:   price,
		EMA21:  price - 1,
		RSI:    55,
		Trend:  models.TrendUp,
		Source: "fxapi",
	}
}

type harness struct {
	ledger   *memLedger
	log      *memActivities
	accounts *memAccounts
	notifier *memNotifier
	deps     Deps
}

func newHarness(o oracleFunc, snap models.MarketSnapshot, accountIDs ...string) *harness {
	h := &harness{
		ledger:   &memLedger{},
		log:      &memActivities{},
		accounts: newMemAccounts(accountIDs...),
		notifier: &memNotifier{},
	}
	pnl := NewPnL(h.ledger, 22)
	h.deps = Deps{
		Accounts: h.accounts,
		Ledger:   h.ledger,
		Market:   staticMarket{snap: snap},
		Oracle:   o,
		Guard:    risk.NewGuardian(pnl),
		PnL:      pnl,
		Recorder: h.log,
		Notifier: h.notifier,
	}
	return h
}

func decide(res models.DecisionResult) oracleFunc {
	return func(context.Context, models.OracleInput) (models.DecisionResult, error) {
		return res, nil
	}
}

func ptr(v float64) *float64 { return &v }
