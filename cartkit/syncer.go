package cartkit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// Syncer coordinates the cart and favorites stores around
// authentication transitions. It owns the dispatchers, the reconciler,
// and the one-shot gate that keeps the non-idempotent cart merge from
// running twice per login.
//
// Serialization guard: both dispatchers start disabled and are only
// enabled after HandleLogin's reconciliation completes, so a
// dispatcher overwrite can never interleave with the reconciler's
// full-collection writes.
type Syncer struct {
	cart      *CartStore
	favorites *FavoritesStore

	cartDispatcher      *Dispatcher[[]CartLine]
	favoritesDispatcher *Dispatcher[[]int64]
	favoritesPusher     *favoritesPusher
	reconciler          *Reconciler

	sessionID string
	logger    *logging.Logger

	mu         sync.Mutex
	reconciled bool
}

// SyncerConfig holds tuning knobs for the Syncer. The zero value gets
// the dispatcher defaults.
type SyncerConfig struct {
	// DebounceWindow for both dispatchers
	DebounceWindow time.Duration

	// PushTimeout for a single remote push
	PushTimeout time.Duration

	// Logger; defaults to the package logger
	Logger *logging.Logger
}

// NewSyncer wires the stores to their remote accessors. Each Syncer
// gets a unique session id carried on every push for log correlation.
func NewSyncer(
	cart *CartStore,
	favorites *FavoritesStore,
	cartRemote CartRemote,
	favoritesRemote FavoritesRemote,
	config *SyncerConfig,
) *Syncer {
	if config == nil {
		config = &SyncerConfig{}
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Default()
	}

	sessionID := uuid.NewString()
	logger = logger.WithSession(sessionID)

	pusher := newFavoritesPusher(favoritesRemote)

	cartDispatcher := NewDispatcher(
		cartRemote.Replace,
		cart.Lines,
		cart.Restore,
		&DispatcherConfig{
			DebounceWindow: config.DebounceWindow,
			PushTimeout:    config.PushTimeout,
			Logger:         logger,
			Component:      "cart-dispatcher",
		},
	)
	favoritesDispatcher := NewDispatcher(
		pusher.Push,
		favorites.IDs,
		favorites.Restore,
		&DispatcherConfig{
			DebounceWindow: config.DebounceWindow,
			PushTimeout:    config.PushTimeout,
			Logger:         logger,
			Component:      "favorites-dispatcher",
		},
	)

	cart.SetMutationHook(cartDispatcher.Notify)
	favorites.SetMutationHook(favoritesDispatcher.Notify)

	return &Syncer{
		cart:                cart,
		favorites:           favorites,
		cartDispatcher:      cartDispatcher,
		favoritesDispatcher: favoritesDispatcher,
		favoritesPusher:     pusher,
		reconciler:          NewReconciler(cart, favorites, cartRemote, favoritesRemote, logger),
		sessionID:           sessionID,
		logger:              logger.WithComponent(logging.Component("syncer")),
	}
}

// SessionID returns the client session id attached to pushes and logs.
func (s *Syncer) SessionID() string {
	return s.sessionID
}

// HandleLogin runs the reconciler for the anonymous to authenticated
// transition and then enables remote pushes. Calling it again while
// logged in is a no-op: the additive cart merge must not run twice.
// If reconciliation fails the gate re-arms and pushes stay disabled,
// so the next login attempt can reconcile from a clean slate.
func (s *Syncer) HandleLogin(ctx context.Context) error {
	s.mu.Lock()
	if s.reconciled {
		s.mu.Unlock()
		return nil
	}
	s.reconciled = true
	s.mu.Unlock()

	if err := s.reconciler.Run(ctx); err != nil {
		s.mu.Lock()
		s.reconciled = false
		s.mu.Unlock()
		return err
	}

	// Seed the favorites pusher with the post-reconcile membership so
	// the first push after login only sends actual changes.
	s.favoritesPusher.Seed(s.favorites.IDs())

	s.cartDispatcher.SetEnabled(true)
	s.favoritesDispatcher.SetEnabled(true)

	s.logger.InfoContext(ctx, "login reconciliation complete, remote pushes enabled")
	return nil
}

// HandleLogout transitions back to anonymous: pending pushes are
// flushed best-effort, both dispatchers are disabled, the cart is
// cleared, and the reconciliation gate re-arms for the next login.
// Favorites survive logout; only the explicit Clear removes them.
func (s *Syncer) HandleLogout(ctx context.Context) {
	// Best effort: a failed flush must not block the logout.
	_ = s.cartDispatcher.Flush(ctx)
	_ = s.favoritesDispatcher.Flush(ctx)

	s.cartDispatcher.SetEnabled(false)
	s.favoritesDispatcher.SetEnabled(false)

	s.cart.Clear()
	s.favoritesPusher.Reset()
	s.reconciler.Reset()

	s.mu.Lock()
	s.reconciled = false
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "logged out, cart cleared, remote pushes disabled")
}

// Flush pushes any pending snapshots immediately, bypassing the
// debounce windows. Both dispatchers flush even when the first fails,
// so a cart push error cannot strand a pending favorites diff. Returns
// the first push failure; the benign authentication case is nil per
// the dispatch taxonomy.
func (s *Syncer) Flush(ctx context.Context) error {
	cartErr := s.cartDispatcher.Flush(ctx)
	favoritesErr := s.favoritesDispatcher.Flush(ctx)
	if cartErr != nil {
		return cartErr
	}
	return favoritesErr
}

// Reconciled reports whether the one-shot login reconciliation has run.
func (s *Syncer) Reconciled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciled
}

// favoritesPusher converges the remote membership to a pushed snapshot
// using the per-id add/remove endpoints, since the favorites API has
// no full-replace call. It tracks the last membership known to be on
// the remote store so each push only issues the calls needed to reach
// the new snapshot.
type favoritesPusher struct {
	remote FavoritesRemote

	mu         sync.Mutex
	lastPushed map[int64]struct{}
}

func newFavoritesPusher(remote FavoritesRemote) *favoritesPusher {
	return &favoritesPusher{remote: remote}
}

// Seed records the membership currently on the remote store, normally
// the post-reconcile snapshot.
func (p *favoritesPusher) Seed(ids []int64) {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	p.mu.Lock()
	p.lastPushed = set
	p.mu.Unlock()
}

// Reset forgets the remote membership, e.g. on logout.
func (p *favoritesPusher) Reset() {
	p.mu.Lock()
	p.lastPushed = nil
	p.mu.Unlock()
}

// Push converges remote membership to ids. On error the last-pushed
// set is left unchanged so the next push recomputes the full diff.
func (p *favoritesPusher) Push(ctx context.Context, ids []int64) error {
	desired := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		desired[id] = struct{}{}
	}

	p.mu.Lock()
	last := p.lastPushed
	p.mu.Unlock()

	for id := range desired {
		if _, ok := last[id]; !ok {
			if err := p.remote.Add(ctx, id); err != nil {
				return err
			}
		}
	}
	for id := range last {
		if _, ok := desired[id]; !ok {
			if err := p.remote.Remove(ctx, id); err != nil {
				return err
			}
		}
	}

	p.mu.Lock()
	p.lastPushed = desired
	p.mu.Unlock()
	return nil
}
