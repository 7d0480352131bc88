// Package scheduler runs work on a fixed delay measured from the end of the
// previous run, so a slow run pushes the next one back instead of overlapping.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/kjannette/bullionaire-backend/internal/logger"
	"go.uber.org/zap"
)

type LoopConfig struct {
	Interval time.Duration
	// Run is one unit of work. It is never called concurrently by the loop.
	Run func(ctx context.Context)
	// OnSleep fires after each run with the time the next run is due.
	OnSleep func(next time.Time)
	// OnStop fires once when the loop exits, unless it was superseded by a
	// newer Start.
	OnStop func()
}

type Loop struct {
	name string
	cfg  LoopConfig
	log  *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

func NewLoop(name string, cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	return &Loop{name: name, cfg: cfg, log: logger.Named("SCHEDULER")}
}

// Start runs the work immediately and then once per interval after each run
// returns. It reports false if the loop is already running.
func (l *Loop) Start(ctx context.Context) bool {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.log.Debugf("%s already running", l.name)
		return false
	}
	l.running = true
	stopCh := make(chan struct{})
	done := make(chan struct{})
	l.stopCh, l.done = stopCh, done
	l.mu.Unlock()

	go l.run(ctx, stopCh, done)

	l.log.Infof("%s started (every %s after completion)", l.name, l.cfg.Interval)
	return true
}

// Stop asks the loop to exit. A run in progress completes; the next one does
// not start. Stop does not wait; use Wait for that.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	close(l.stopCh)
	l.running = false
	l.log.Infof("%s stopped", l.name)
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Wait blocks until the most recently started loop goroutine has exited.
func (l *Loop) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (l *Loop) run(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)
	defer l.exit(stopCh)

	for {
		l.cfg.Run(ctx)

		if stopped(stopCh) {
			return
		}

		next := time.Now().Add(l.cfg.Interval)
		if l.cfg.OnSleep != nil {
			l.cfg.OnSleep(next)
		}

		timer := time.NewTimer(l.cfg.Interval)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// the stop flag is consulted again at the sleep to run transition
		if stopped(stopCh) {
			return
		}
	}
}

func (l *Loop) exit(stopCh chan struct{}) {
	l.mu.Lock()
	current := l.stopCh == stopCh
	if current {
		l.running = false
	}
	l.mu.Unlock()

	if current && l.cfg.OnStop != nil {
		l.cfg.OnStop()
	}
}

func stopped(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
