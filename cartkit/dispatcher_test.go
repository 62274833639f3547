package cartkit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// pushRecorder captures pushed snapshots and returns an injectable error.
type pushRecorder struct {
	mu     sync.Mutex
	pushes [][]int64
	err    error
}

func (r *pushRecorder) push(ctx context.Context, snapshot []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.pushes = append(r.pushes, append([]int64(nil), snapshot...))
	return nil
}

func (r *pushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

func (r *pushRecorder) last() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pushes) == 0 {
		return nil
	}
	return r.pushes[len(r.pushes)-1]
}

type dispatcherHarness struct {
	recorder *pushRecorder
	state    []int64
	reverted [][]int64
	mu       sync.Mutex
}

func newDispatcherHarness(t *testing.T, window time.Duration) (*dispatcherHarness, *Dispatcher[[]int64]) {
	t.Helper()
	h := &dispatcherHarness{recorder: &pushRecorder{}}
	d := NewDispatcher(
		h.recorder.push,
		func() []int64 {
			h.mu.Lock()
			defer h.mu.Unlock()
			return append([]int64(nil), h.state...)
		},
		func(s []int64) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.state = append([]int64(nil), s...)
			h.reverted = append(h.reverted, s)
		},
		&DispatcherConfig{DebounceWindow: window},
	)
	return h, d
}

func (h *dispatcherHarness) setState(s []int64) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *dispatcherHarness) currentState() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.state...)
}

func TestDispatcherDisabledByDefault(t *testing.T) {
	h, d := newDispatcherHarness(t, 10*time.Millisecond)

	h.setState([]int64{1})
	d.Notify(nil)
	time.Sleep(50 * time.Millisecond)

	if got := h.recorder.count(); got != 0 {
		t.Errorf("expected no pushes while disabled, got %d", got)
	}
}

func TestDispatcherPushesLatestSnapshot(t *testing.T) {
	h, d := newDispatcherHarness(t, time.Hour)
	d.SetEnabled(true)

	h.setState([]int64{1})
	d.Notify(nil)
	h.setState([]int64{1, 2})
	d.Notify([]int64{1})

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if got := h.recorder.count(); got != 1 {
		t.Fatalf("expected one push for the burst, got %d", got)
	}
	if !sameIDs(h.recorder.last(), []int64{1, 2}) {
		t.Errorf("expected latest snapshot pushed, got %v", h.recorder.last())
	}
}

func TestDispatcherDebouncedPushFires(t *testing.T) {
	h, d := newDispatcherHarness(t, 20*time.Millisecond)
	d.SetEnabled(true)

	h.setState([]int64{4})
	d.Notify(nil)

	time.Sleep(100 * time.Millisecond)
	if got := h.recorder.count(); got != 1 {
		t.Fatalf("expected debounced push to fire, got %d pushes", got)
	}
	if !sameIDs(h.recorder.last(), []int64{4}) {
		t.Errorf("expected snapshot {4}, got %v", h.recorder.last())
	}
}

func TestDispatcherRevertsOnFailure(t *testing.T) {
	h, d := newDispatcherHarness(t, time.Hour)
	d.SetEnabled(true)
	h.recorder.err = netErr()

	// Baseline is the state before the first mutation of the window.
	h.setState([]int64{1, 2})
	d.Notify([]int64{1})
	h.setState([]int64{1, 2, 3})
	d.Notify([]int64{1, 2})

	if err := d.Flush(context.Background()); err == nil {
		t.Fatal("expected flush to surface the push error")
	}

	if !sameIDs(h.currentState(), []int64{1}) {
		t.Errorf("expected rollback to first baseline {1}, got %v", h.currentState())
	}
	if len(h.reverted) != 1 {
		t.Errorf("expected exactly one revert, got %d", len(h.reverted))
	}
}

func TestDispatcherKeepsLocalOnAuthFailure(t *testing.T) {
	h, d := newDispatcherHarness(t, time.Hour)
	d.SetEnabled(true)
	h.recorder.err = authErr()

	h.setState([]int64{5})
	d.Notify(nil)

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("auth failure must be benign, got %v", err)
	}

	if !sameIDs(h.currentState(), []int64{5}) {
		t.Errorf("expected local state kept on auth failure, got %v", h.currentState())
	}
	if len(h.reverted) != 0 {
		t.Errorf("expected no revert on auth failure, got %d", len(h.reverted))
	}
}

func TestDispatcherDisableDropsPending(t *testing.T) {
	h, d := newDispatcherHarness(t, time.Hour)
	d.SetEnabled(true)

	h.setState([]int64{1})
	d.Notify(nil)
	d.SetEnabled(false)

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush after disable: %v", err)
	}
	if got := h.recorder.count(); got != 0 {
		t.Errorf("expected pending push dropped on disable, got %d", got)
	}
}

func TestDispatcherFlushWithoutPendingIsNoop(t *testing.T) {
	h, d := newDispatcherHarness(t, time.Hour)
	d.SetEnabled(true)

	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := h.recorder.count(); got != 0 {
		t.Errorf("expected no push without a pending mutation, got %d", got)
	}
}
