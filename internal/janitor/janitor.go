// Package janitor implements background pruning of the issued-id ledger.
// It runs independently from the app Service so retention housekeeping stays
// off the request path.
package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Store is the ledger operation the Janitor requires.
type Store interface {
	// PruneBefore deletes ids issued before t and returns the number removed.
	PruneBefore(ctx context.Context, t time.Time) (int, error)
}

// Recorder receives per-cycle results. *metrics.Manager satisfies it.
type Recorder interface {
	Inc(name string, delta int64)
	Observe(name string, value int64)
}

// Metric names reported to the Recorder.
const (
	CounterPruned   = "ledger_pruned_total"
	SummaryPerCycle = "janitor_pruned_per_cycle"
)

// Config holds tunables for the Janitor.
type Config struct {
	Interval  time.Duration    // how often a cycle begins
	Retention time.Duration    // ids issued longer ago than this are pruned
	Now       func() time.Time // optional clock (defaults to time.Now)
	Logger    *slog.Logger     // optional logger (defaults to slog.Default())
}

// MetricsView is a read-only snapshot of the janitor's own counters.
type MetricsView struct {
	Cycles              uint64
	Pruned              uint64
	Failures            uint64
	CycleLastDurationMS int64
}

// Janitor encapsulates the background pruning loop.
type Janitor struct {
	store Store
	rec   Recorder
	cfg   Config

	mu      sync.Mutex
	metrics MetricsView

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// New constructs but does not start a Janitor. rec may be nil.
func New(store Store, rec Recorder, cfg Config) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Janitor{
		store:  store,
		rec:    rec,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the janitor loop in a new goroutine.
func (j *Janitor) Start(ctx context.Context) {
	if j.ticker != nil {
		return
	}
	j.ticker = time.NewTicker(j.cfg.Interval)
	go j.loop(ctx)
}

// Stop signals the loop to exit and waits for completion. Calling Stop on a
// Janitor that was never started returns immediately.
func (j *Janitor) Stop() {
	if j.ticker == nil {
		return
	}
	j.once.Do(func() { close(j.stopCh) })
	<-j.doneCh
}

// MetricsSnapshot returns a copy of current metrics.
func (j *Janitor) MetricsSnapshot() MetricsView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.metrics
}

func (j *Janitor) loop(ctx context.Context) {
	log := j.cfg.Logger.With("domain", "janitor")
	defer func() {
		j.ticker.Stop()
		close(j.doneCh)
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info("janitor stop", "reason", "context_cancel")
			return
		case <-j.stopCh:
			log.Info("janitor stop", "reason", "stop_signal")
			return
		case <-j.ticker.C:
			j.runCycle(ctx)
		}
	}
}

// runCycle performs one prune pass.
func (j *Janitor) runCycle(ctx context.Context) {
	start := time.Now()
	log := j.cfg.Logger.With("domain", "janitor", "action", "cycle")
	cutoff := j.cfg.Now().UTC().Add(-j.cfg.Retention)
	n, err := j.store.PruneBefore(ctx, cutoff)
	elapsed := time.Since(start)

	j.mu.Lock()
	j.metrics.Cycles++
	j.metrics.CycleLastDurationMS = elapsed.Milliseconds()
	if err != nil {
		j.metrics.Failures++
	} else if n > 0 {
		j.metrics.Pruned += uint64(n)
	}
	j.mu.Unlock()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("prune", "error", err)
		}
		return
	}
	if j.rec != nil {
		j.rec.Inc(CounterPruned, int64(n))
		j.rec.Observe(SummaryPerCycle, int64(n))
	}
	log.Info("cycle complete", "pruned", n, "cutoff", cutoff, "ms", elapsed.Milliseconds())
}
