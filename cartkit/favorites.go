package cartkit

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// FavoritesStore holds the favorite product ids as a set. Membership
// is the only semantic: no duplicates, no order guarantees. Snapshots
// are returned sorted so persistence and pushes are deterministic.
type FavoritesStore struct {
	mu        sync.Mutex
	ids       map[int64]struct{}
	persister Persister
	logger    *logging.Logger
	onMutate  func(before []int64)
}

// NewFavoritesStore creates a favorites store backed by the given
// persister. A nil logger falls back to the package default.
func NewFavoritesStore(persister Persister, logger *logging.Logger) *FavoritesStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &FavoritesStore{
		ids:       make(map[int64]struct{}),
		persister: persister,
		logger:    logger.WithComponent(logging.Component("favorites-store")),
	}
}

// SetMutationHook registers the callback invoked after every user
// mutation with the pre-mutation snapshot. Restore does not fire it.
func (s *FavoritesStore) SetMutationHook(hook func(before []int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = hook
}

// Rehydrate loads the persisted set into memory. A missing storage key
// means a fresh client and leaves the set empty.
func (s *FavoritesStore) Rehydrate(ctx context.Context) error {
	var ids []int64
	err := s.persister.Load(ctx, FavoritesStorageKey, &ids)
	if err != nil {
		if stderrors.Is(err, ErrKeyNotFound) {
			return nil
		}
		return errors.WrapOpComponent(err, errors.OpLoad, "favorites-store")
	}

	s.mu.Lock()
	s.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// Toggle flips membership for the product and reports whether it is a
// favorite afterwards. It delegates to the add/remove primitives so
// only one code path can diverge from set semantics.
func (s *FavoritesStore) Toggle(productID int64) bool {
	if s.IsFavorite(productID) {
		s.Remove(productID)
		return false
	}
	s.Add(productID)
	return true
}

// Add marks the product as favorite. Adding an existing member is a
// no-op.
func (s *FavoritesStore) Add(productID int64) {
	s.mutate(func() {
		s.ids[productID] = struct{}{}
	})
}

// Remove unmarks the product. Removing a non-member is a no-op.
func (s *FavoritesStore) Remove(productID int64) {
	s.mutate(func() {
		delete(s.ids, productID)
	})
}

// IsFavorite reports membership.
func (s *FavoritesStore) IsFavorite(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[productID]
	return ok
}

// Count returns the number of favorites.
func (s *FavoritesStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns a sorted snapshot of the current membership.
func (s *FavoritesStore) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Clear empties the set and deletes the persisted storage key
// directly, not just the in-memory state, so a stale rehydration
// cannot resurrect cleared favorites.
func (s *FavoritesStore) Clear(ctx context.Context) {
	s.mu.Lock()
	before := s.snapshotLocked()
	s.ids = make(map[int64]struct{})
	hook := s.onMutate
	s.mu.Unlock()

	if err := s.persister.Delete(ctx, FavoritesStorageKey); err != nil {
		s.logger.LogError(ctx,
			errors.NewStorageError(errors.OpDelete, err),
			"failed to delete persisted favorites",
		)
	}
	if hook != nil {
		hook(before)
	}
}

// Restore replaces the membership and persists it without firing the
// mutation hook. Used by the reconciler and the dispatcher rollback.
func (s *FavoritesStore) Restore(ids []int64) {
	s.mu.Lock()
	s.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

func (s *FavoritesStore) mutate(fn func()) {
	s.mu.Lock()
	before := s.snapshotLocked()
	fn()
	after := s.snapshotLocked()
	hook := s.onMutate
	s.mu.Unlock()

	s.persist(after)
	if hook != nil {
		hook(before)
	}
}

func (s *FavoritesStore) snapshotLocked() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *FavoritesStore) persist(ids []int64) {
	if err := s.persister.Save(context.Background(), FavoritesStorageKey, ids); err != nil {
		s.logger.LogError(context.Background(),
			errors.NewStorageError(errors.OpPersist, err),
			"failed to persist favorites",
			slog.Int("count", len(ids)),
		)
	}
}
