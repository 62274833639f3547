package cartkit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// Reconciler merges the local collections with the remote snapshots at
// the anonymous to authenticated transition. Neither side is silently
// discarded: cart quantities are summed per identity key and the
// merged cart is written back to both sides; favorites treat a
// non-empty remote as authoritative after backfilling local-only ids.
//
// Run is NOT idempotent for the cart: the additive-sum policy would
// double-count quantities on a second run. The Syncer gates Run to
// fire once per login transition, and the cart step is additionally
// gated inside the reconciler itself so a retry after a favorites
// failure re-runs only the idempotent favorites step.
type Reconciler struct {
	cart            *CartStore
	favorites       *FavoritesStore
	cartRemote      CartRemote
	favoritesRemote FavoritesRemote
	logger          *logging.Logger

	mu       sync.Mutex
	cartDone bool
}

// NewReconciler creates a reconciler over the local stores and their
// remote accessors. A nil logger falls back to the package default.
func NewReconciler(
	cart *CartStore,
	favorites *FavoritesStore,
	cartRemote CartRemote,
	favoritesRemote FavoritesRemote,
	logger *logging.Logger,
) *Reconciler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{
		cart:            cart,
		favorites:       favorites,
		cartRemote:      cartRemote,
		favoritesRemote: favoritesRemote,
		logger:          logger.WithComponent(logging.Component("reconciler")),
	}
}

// Run reconciles both collections. The cart goes first so that a
// favorites failure never leaves purchase intent unmerged. The cart
// step runs at most once across retries: once its merge has been
// installed on both sides, a later Run only re-runs favorites.
func (r *Reconciler) Run(ctx context.Context) error {
	return r.logger.LogOperation(ctx, logging.Operation(errors.OpReconcile), "reconciler", func() error {
		r.mu.Lock()
		cartDone := r.cartDone
		r.mu.Unlock()

		if !cartDone {
			if err := r.reconcileCart(ctx); err != nil {
				return err
			}
		}
		return r.reconcileFavorites(ctx)
	})
}

// Reset re-arms the cart step for the next login transition.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.cartDone = false
	r.mu.Unlock()
}

// reconcileCart fetches the remote snapshot, merges additively into
// the local collection, overwrites the remote cart with the full merged
// collection, and only then installs the merge locally. The remote
// write goes first: if it fails, neither side has been touched and a
// retry can merge again from the original snapshots without
// double-counting.
func (r *Reconciler) reconcileCart(ctx context.Context) error {
	remote, err := r.cartRemote.Fetch(ctx)
	if err != nil {
		return errors.WrapOpComponent(err, errors.OpReconcile, "reconciler")
	}

	local := r.cart.Lines()
	merged := MergeCartAdditive(local, remote)

	// The append branch of the merge already carries remote-only lines
	// over, but guarantee explicitly that remote data survives an
	// uninitialized local store.
	if len(merged) == 0 && len(remote) > 0 {
		merged = cloneLines(remote)
	}

	if err := r.cartRemote.Replace(ctx, merged); err != nil {
		return errors.WrapOpComponent(err, errors.OpReconcile, "reconciler")
	}

	r.cart.Restore(merged)

	r.mu.Lock()
	r.cartDone = true
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "cart reconciled",
		slog.Int("local_lines", len(local)),
		slog.Int("remote_lines", len(remote)),
		slog.Int("merged_lines", len(merged)),
	)
	return nil
}

// reconcileFavorites backfills local-only ids to the remote store and
// then installs whatever remote reports as the authoritative set. An
// empty remote leaves local membership untouched; those ids reach the
// remote store through the ordinary dispatcher path on the next
// mutation.
func (r *Reconciler) reconcileFavorites(ctx context.Context) error {
	remote, err := r.favoritesRemote.Fetch(ctx)
	if err != nil {
		return errors.WrapOpComponent(err, errors.OpReconcile, "reconciler")
	}

	if len(remote) == 0 {
		return nil
	}

	local := r.favorites.IDs()
	_, localOnly := MergeFavoritesUnion(local, remote)

	for _, id := range localOnly {
		if err := r.favoritesRemote.Add(ctx, id); err != nil {
			return errors.WrapOpComponent(err, errors.OpReconcile, "reconciler")
		}
	}

	final, err := r.favoritesRemote.Fetch(ctx)
	if err != nil {
		return errors.WrapOpComponent(err, errors.OpReconcile, "reconciler")
	}
	r.favorites.Restore(final)

	r.logger.InfoContext(ctx, "favorites reconciled",
		slog.Int("local", len(local)),
		slog.Int("remote", len(remote)),
		slog.Int("backfilled", len(localOnly)),
		slog.Int("final", len(final)),
	)
	return nil
}
