package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// --- Fakes / Mocks ---

type fakeStore struct {
	mu       sync.Mutex
	pruned   int
	err      error
	calls    int
	lastTime time.Time
}

func (fs *fakeStore) PruneBefore(_ context.Context, t time.Time) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls++
	fs.lastTime = t
	if fs.err != nil {
		return 0, fs.err
	}
	return fs.pruned, nil
}

// externalCollector captures emitted metrics for verification.
type externalCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	observes map[string][]int64
}

func newExternalCollector() *externalCollector {
	return &externalCollector{counters: make(map[string]int64), observes: make(map[string][]int64)}
}

func (e *externalCollector) Inc(name string, delta int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters[name] += delta
}

func (e *externalCollector) Observe(name string, v int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observes[name] = append(e.observes[name], v)
}

func TestJanitorCycleSuccess(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	fs := &fakeStore{pruned: 3}
	j := New(fs, nil, Config{
		Interval:  time.Hour,
		Retention: 24 * time.Hour,
		Now:       func() time.Time { return now },
		Logger:    slog.Default(),
	})
	j.runCycle(context.Background())
	mv := j.MetricsSnapshot()
	if mv.Pruned != 3 || mv.Cycles != 1 || mv.Failures != 0 {
		t.Fatalf("unexpected metrics %+v", mv)
	}
	if fs.calls != 1 {
		t.Fatalf("expected one prune call, got %d", fs.calls)
	}
	if want := now.Add(-24 * time.Hour); !fs.lastTime.Equal(want) {
		t.Fatalf("cutoff mismatch: got %v want %v", fs.lastTime, want)
	}
}

func TestJanitorCycleError(t *testing.T) {
	fs := &fakeStore{err: errors.New("boom")}
	ec := newExternalCollector()
	j := New(fs, ec, Config{Interval: time.Hour})
	j.runCycle(context.Background())
	mv := j.MetricsSnapshot()
	if mv.Pruned != 0 || mv.Cycles != 1 || mv.Failures != 1 {
		t.Fatalf("metrics after error %+v", mv)
	}
	if len(ec.counters) != 0 || len(ec.observes) != 0 {
		t.Fatalf("failed cycle must not report metrics")
	}
}

func TestJanitorExternalMetrics(t *testing.T) {
	fs := &fakeStore{pruned: 4}
	ec := newExternalCollector()
	j := New(fs, ec, Config{Interval: time.Hour})
	j.runCycle(context.Background())
	j.runCycle(context.Background())
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if got := ec.counters[CounterPruned]; got != 8 {
		t.Fatalf("expected external counter 8 got %d", got)
	}
	obs := ec.observes[SummaryPerCycle]
	if len(obs) != 2 || obs[0] != 4 || obs[1] != 4 {
		t.Fatalf("unexpected observations %+v", obs)
	}
}

func TestStartStopLoop(t *testing.T) {
	fs := &fakeStore{pruned: 1}
	j := New(fs, nil, Config{Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j.Start(ctx)
	time.Sleep(25 * time.Millisecond)
	j.Stop()
	j.Stop()
	if mv := j.MetricsSnapshot(); mv.Cycles == 0 {
		t.Fatalf("expected at least one cycle")
	}
}

func TestLoopExitsOnContextCancel(t *testing.T) {
	j := New(&fakeStore{}, nil, Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)
	cancel()
	select {
	case <-j.doneCh:
	case <-time.After(time.Second):
		t.Fatalf("loop did not exit after cancel")
	}
	j.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	j := New(&fakeStore{}, nil, Config{})
	j.Stop()
}

func TestNewDefaults(t *testing.T) {
	j := New(&fakeStore{}, nil, Config{})
	if j.cfg.Interval <= 0 || j.cfg.Retention <= 0 || j.cfg.Logger == nil || j.cfg.Now == nil {
		t.Fatalf("defaults not applied %+v", j.cfg)
	}
}

func TestStartAlreadyStarted(t *testing.T) {
	j := New(&fakeStore{}, nil, Config{Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j.Start(ctx)
	tkr := j.ticker
	j.Start(ctx)
	if j.ticker != tkr {
		t.Fatalf("ticker replaced unexpectedly")
	}
	j.Stop()
}
