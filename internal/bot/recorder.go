package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/models"
	"go.uber.org/zap"
)

type RecorderOptions struct {
	Buffer       int
	WriteTimeout time.Duration
	// OnError receives every entry that could not be written.
	OnError func(e *models.ActivityLogEntry, err error)
}

// Recorder appends activity entries from a single background writer so the
// cycle never waits on log persistence and entries keep their issue order.
type Recorder struct {
	sink    ActivityLog
	opts    RecorderOptions
	entries chan *models.ActivityLogEntry
	done    chan struct{}
	now     func() time.Time
	log     *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
}

func NewRecorder(sink ActivityLog, opts RecorderOptions) *Recorder {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	r := &Recorder{
		sink:    sink,
		opts:    opts,
		entries: make(chan *models.ActivityLogEntry, opts.Buffer),
		done:    make(chan struct{}),
		now:     time.Now,
		log:     logger.Named("ACTIVITY"),
	}
	go r.drain()
	return r
}

// Record queues an entry and returns immediately unless the buffer is full.
func (r *Recorder) Record(accountID string, typ models.ActivityType, msg string) {
	e := &models.ActivityLogEntry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Timestamp: r.now().UTC(),
		Message:   msg,
		Type:      typ,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warnw("Recorder closed, dropping entry", "account", accountID, "type", typ, "message", msg)
		return
	}
	r.entries <- e
}

// Close stops accepting entries and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.entries)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) drain() {
	defer close(r.done)
	for e := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.WriteTimeout)
		err := r.sink.Append(ctx, e)
		cancel()
		if err == nil {
			continue
		}
		r.log.Errorw("Activity write failed", "account", e.AccountID, "type", e.Type, "error", err)
		if r.opts.OnError != nil {
			r.opts.OnError(e, err)
		}
	}
}

// FailureReporter builds an OnError callback that surfaces a lost entry to
// the operator and writes an ERROR entry for it straight to sink. Lost ERROR
// entries are only notified.
func FailureReporter(sink ActivityLog, notify Notifier, timeout time.Duration) func(*models.ActivityLogEntry, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(e *models.ActivityLogEntry, err error) {
		werr := fmt.Errorf("record %s activity: %w", e.Type, err)
		if notify != nil {
			notify.CycleFailed(e.AccountID, werr)
		}
		if e.Type == models.ActivityError {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = sink.Append(ctx, &models.ActivityLogEntry{
			ID:        uuid.NewString(),
			AccountID: e.AccountID,
			Timestamp: time.Now().UTC(),
			Message:   "ERROR: " + werr.Error(),
			Type:      models.ActivityError,
		})
	}
}
