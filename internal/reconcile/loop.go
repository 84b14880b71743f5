// Package reconcile keeps the local replica converging on the remote source
// of truth. Two triggers: a fixed-interval periodic refresh, and short
// staggered refetches scheduled after mutations so the remote system has time
// to finish server-side effects (recurrence regeneration, counter updates)
// before the client re-reads.
package reconcile

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/itellico/joi-console/internal/model"
	"github.com/itellico/joi-console/internal/store"
)

// DefaultRefetchDelays tolerate a remote with unpredictable completion
// latency; each delay is an independent refetch.
var DefaultRefetchDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// Fetcher is the read side of the remote gateway.
type Fetcher interface {
	FetchAll(ctx context.Context) (model.Snapshot, error)
	FetchLogbook(ctx context.Context, limit int) ([]model.CompletedTask, error)
}

// Saver persists a snapshot between runs. Optional; failures are non-fatal.
type Saver interface {
	Save(ctx context.Context, snap model.Snapshot) error
}

type Loop struct {
	store        *store.Store
	fetcher      Fetcher
	saver        Saver
	interval     time.Duration
	logbookLimit int
	logger       *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	timers       []*time.Timer
	lastSync     time.Time
	refreshCount int
	errorCount   int
}

type Config struct {
	Store        *store.Store
	Fetcher      Fetcher
	Saver        Saver
	Interval     time.Duration
	LogbookLimit int
	Logger       *log.Logger
}

func New(cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.LogbookLimit <= 0 {
		cfg.LogbookLimit = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[reconcile] ", log.LstdFlags)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		store:        cfg.Store,
		fetcher:      cfg.Fetcher,
		saver:        cfg.Saver,
		interval:     cfg.Interval,
		logbookLimit: cfg.LogbookLimit,
		logger:       cfg.Logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run performs an initial refresh with bounded retry, then ticks until Stop.
// A failed refresh keeps the previous snapshot and is retried on the next
// tick; nothing here is surfaced to the user.
func (l *Loop) Run() error {
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		if err := l.Refresh(l.ctx); err != nil {
			l.logger.Printf("initial refresh attempt %d/%d failed: %v", i+1, maxRetries, err)
			select {
			case <-l.ctx.Done():
				return nil
			case <-time.After(time.Second * time.Duration(i+1)):
			}
			continue
		}
		break
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.Refresh(l.ctx); err != nil {
				l.logger.Printf("refresh failed, keeping previous snapshot: %v", err)
			}
		}
	}
}

// Stop cancels the loop and any pending refetch timers.
func (l *Loop) Stop() {
	l.cancel()
	l.mu.Lock()
	for _, t := range l.timers {
		t.Stop()
	}
	l.timers = nil
	l.mu.Unlock()
}

// RefetchAfter schedules one refresh per delay. Overlap with the periodic
// tick is fine: the last Replace to complete wins, and Replace is atomic.
func (l *Loop) RefetchAfter(delays ...time.Duration) {
	if len(delays) == 0 {
		delays = DefaultRefetchDelays
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range delays {
		t := time.AfterFunc(d, func() {
			if l.ctx.Err() != nil {
				return
			}
			if err := l.Refresh(l.ctx); err != nil {
				l.logger.Printf("post-mutation refetch failed: %v", err)
			}
		})
		l.timers = append(l.timers, t)
	}
}

// Refresh fetches the full entity set plus the logbook and replaces the
// store's generation. On any fetch error the store is left untouched.
func (l *Loop) Refresh(ctx context.Context) error {
	snap, err := l.fetcher.FetchAll(ctx)
	if err != nil {
		l.countError()
		return err
	}
	completed, err := l.fetcher.FetchLogbook(ctx, l.logbookLimit)
	if err != nil {
		l.countError()
		return err
	}
	snap.Completed = completed
	l.store.Replace(snap)

	if l.saver != nil {
		if err := l.saver.Save(ctx, snap); err != nil {
			l.logger.Printf("snapshot cache write failed: %v", err)
		}
	}

	l.mu.Lock()
	l.lastSync = time.Now()
	l.refreshCount++
	l.mu.Unlock()
	return nil
}

func (l *Loop) countError() {
	l.mu.Lock()
	l.errorCount++
	l.mu.Unlock()
}

// Stats reports refresh counters for diagnostics.
func (l *Loop) Stats() (lastSync time.Time, refreshes, errors int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSync, l.refreshCount, l.errorCount
}
