package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kjannette/bullionaire-backend/internal/logger"
	"go.uber.org/zap"
)

// Service owns one Controller per trading account.
type Service struct {
	deps Deps
	opts Options

	base   context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	controllers map[string]*Controller
	log         *zap.SugaredLogger
}

func NewService(deps Deps, opts Options) *Service {
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		deps:        deps,
		opts:        opts.withDefaults(),
		base:        base,
		cancel:      cancel,
		controllers: make(map[string]*Controller),
		log:         logger.Named("BOT"),
	}
}

// StartTrading activates auto trading for the account. Starting an account
// that is already cycling is a no-op.
func (s *Service) StartTrading(ctx context.Context, accountID string) error {
	if _, err := s.deps.Accounts.Get(ctx, accountID); err != nil {
		return err
	}
	if err := s.deps.Accounts.SetAutoTrading(ctx, accountID, true); err != nil {
		return fmt.Errorf("persist auto trading: %w", err)
	}
	if s.start(accountID) {
		s.deps.Notifier.Send(fmt.Sprintf("Auto-trading started for account %s (%s every %s)",
			accountID, s.opts.Symbol, s.opts.Interval))
	}
	return nil
}

// PauseTrading stops the account's controller after its current cycle.
func (s *Service) PauseTrading(ctx context.Context, accountID string) error {
	if err := s.deps.Accounts.SetAutoTrading(ctx, accountID, false); err != nil {
		return fmt.Errorf("persist auto trading: %w", err)
	}
	s.mu.Lock()
	c := s.controllers[accountID]
	s.mu.Unlock()
	if c != nil && c.Active() {
		c.Pause()
		s.deps.Notifier.Send(fmt.Sprintf("Auto-trading paused for account %s", accountID))
	}
	return nil
}

func (s *Service) Status(ctx context.Context, accountID string) (Status, error) {
	s.mu.Lock()
	c := s.controllers[accountID]
	s.mu.Unlock()
	if c != nil {
		return c.Status(), nil
	}
	if _, err := s.deps.Accounts.Get(ctx, accountID); err != nil {
		return Status{}, err
	}
	return Status{AccountID: accountID, State: StateIdle}, nil
}

// ActiveAccounts lists the accounts whose controller is cycling, sorted.
func (s *Service) ActiveAccounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, c := range s.controllers {
		if c.Active() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Run resumes every account left with auto trading on, then blocks until
// ctx is done and shuts all controllers down.
func (s *Service) Run(ctx context.Context) error {
	accounts, err := s.deps.Accounts.ListAutoTrading(ctx)
	if err != nil {
		return fmt.Errorf("list auto-trading accounts: %w", err)
	}
	for _, a := range accounts {
		if s.start(a.ID) {
			s.log.Infow("Resumed auto trading", "account", a.ID)
		}
	}

	<-ctx.Done()
	s.Shutdown()
	return nil
}

// Shutdown pauses every controller and waits for in-flight cycles.
func (s *Service) Shutdown() {
	s.mu.Lock()
	all := make([]*Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		all = append(all, c)
	}
	s.mu.Unlock()

	for _, c := range all {
		c.Pause()
	}
	s.cancel()
	for _, c := range all {
		c.Wait()
	}
	s.log.Info("Shutting down gracefully")
}

func (s *Service) start(accountID string) bool {
	s.mu.Lock()
	c, ok := s.controllers[accountID]
	if !ok {
		c = NewController(accountID, s.deps, s.opts)
		s.controllers[accountID] = c
	}
	s.mu.Unlock()
	return c.Start(s.base)
}
