package cartkit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

const (
	// DefaultDebounceWindow is the quiet period before a push fires.
	DefaultDebounceWindow = time.Second

	// DefaultPushTimeout bounds a single remote push.
	DefaultPushTimeout = 30 * time.Second
)

// Dispatcher implements the optimistic mutation protocol as three
// explicit phases: the store applies the mutation and notifies the
// dispatcher with the pre-mutation snapshot; after a debounce window
// the dispatcher pushes the latest full snapshot to the remote store;
// on failure it reverts local state to the snapshot taken before the
// first mutation of the window.
//
// The failure taxonomy is binary: an authentication-kind error keeps
// the local mutation (anonymous usage is fully supported locally),
// every other error rolls back and is logged. Errors never propagate
// to the store's callers.
//
// Intermediate states inside a window are never sent; each push is a
// full-state overwrite, so only the latest snapshot matters.
type Dispatcher[S any] struct {
	push     func(ctx context.Context, snapshot S) error
	snapshot func() S
	revert   func(S)

	debounce *Debouncer
	timeout  time.Duration
	logger   *logging.Logger

	mu       sync.Mutex
	baseline *S
	enabled  bool
}

// DispatcherConfig holds tuning knobs for a Dispatcher. The zero value
// gets the defaults above.
type DispatcherConfig struct {
	// DebounceWindow is the quiet period before a push fires
	DebounceWindow time.Duration

	// PushTimeout bounds a single remote push
	PushTimeout time.Duration

	// Logger for push outcomes; defaults to the package logger
	Logger *logging.Logger

	// Component name for log attribution (e.g., "cart-dispatcher")
	Component string
}

func (c *DispatcherConfig) setDefaults() {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.PushTimeout <= 0 {
		c.PushTimeout = DefaultPushTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	if c.Component == "" {
		c.Component = "dispatcher"
	}
}

// NewDispatcher creates a dispatcher. push sends the full snapshot to
// the remote store, snapshot reads the current local collection, and
// revert restores a previous snapshot without re-triggering a push.
// The dispatcher starts disabled; the Syncer enables it once the
// login reconciliation has completed.
func NewDispatcher[S any](
	push func(ctx context.Context, snapshot S) error,
	snapshot func() S,
	revert func(S),
	config *DispatcherConfig,
) *Dispatcher[S] {
	if config == nil {
		config = &DispatcherConfig{}
	}
	config.setDefaults()

	return &Dispatcher[S]{
		push:     push,
		snapshot: snapshot,
		revert:   revert,
		debounce: NewDebouncer(config.DebounceWindow),
		timeout:  config.PushTimeout,
		logger:   config.Logger.WithComponent(logging.Component(config.Component)),
	}
}

// SetEnabled turns remote pushes on or off. Disabling cancels any
// pending push and drops the rollback baseline; local state stands.
func (d *Dispatcher[S]) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	if !enabled {
		d.baseline = nil
	}
	d.mu.Unlock()

	if !enabled {
		d.debounce.Stop()
	}
}

// Enabled reports whether remote pushes are active.
func (d *Dispatcher[S]) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Notify records a local mutation. before is the snapshot taken
// immediately prior to applying it; the first Notify of a debounce
// window pins it as the rollback baseline for the whole window.
// While disabled, Notify is a no-op and the mutation stays local.
func (d *Dispatcher[S]) Notify(before S) {
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return
	}
	if d.baseline == nil {
		b := before
		d.baseline = &b
	}
	d.mu.Unlock()

	d.debounce.Trigger(d.fire)
}

// Flush pushes any pending snapshot immediately, bypassing the
// debounce window. Used on logout and by tests that need a
// deterministic push. The returned error is nil for the benign
// authentication case, matching the dispatch taxonomy.
func (d *Dispatcher[S]) Flush(ctx context.Context) error {
	d.debounce.Stop()
	return d.dispatch(ctx)
}

func (d *Dispatcher[S]) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	// Outcome already logged; the async path has no caller to return to.
	_ = d.dispatch(ctx)
}

func (d *Dispatcher[S]) dispatch(ctx context.Context) error {
	d.mu.Lock()
	baseline := d.baseline
	d.baseline = nil
	enabled := d.enabled
	d.mu.Unlock()

	if !enabled || baseline == nil {
		return nil
	}

	snapshot := d.snapshot()
	err := d.push(ctx, snapshot)
	if err == nil {
		d.logger.DebugContext(ctx, "remote push succeeded")
		return nil
	}

	if errors.IsAuth(err) {
		// Expected while anonymous: keep the optimistic local state.
		d.logger.DebugContext(ctx, "remote push skipped without credential",
			slog.String("error", err.Error()),
		)
		return nil
	}

	d.revert(*baseline)
	d.logger.LogError(ctx, errors.WrapOpComponent(err, errors.OpPush, "dispatcher"),
		"remote push failed, local state reverted")
	return err
}
