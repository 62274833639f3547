package cartkit

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/c0deZ3R0/go-cart-kit/errors"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// CartStore holds the current cart collection in memory and persists
// it under CartStorageKey on every mutation. It is the single source
// of truth for rendering; the remote store only sees it through the
// dispatcher and the reconciler.
//
// Invariants: at most one line per identity key, and no line with a
// quantity below one. A mutation that would drop a quantity to zero or
// below removes the line instead.
type CartStore struct {
	mu        sync.Mutex
	lines     []CartLine
	persister Persister
	logger    *logging.Logger
	onMutate  func(before []CartLine)
}

// NewCartStore creates a cart store backed by the given persister.
// A nil logger falls back to the package default.
func NewCartStore(persister Persister, logger *logging.Logger) *CartStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &CartStore{
		persister: persister,
		logger:    logger.WithComponent(logging.Component("cart-store")),
	}
}

// SetMutationHook registers the callback invoked after every user
// mutation with the pre-mutation snapshot. The dispatcher uses it as
// the rollback baseline. Restore does not fire the hook, so reverts
// and reconciler writes cannot re-trigger pushes.
func (s *CartStore) SetMutationHook(hook func(before []CartLine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = hook
}

// Rehydrate loads the persisted collection into memory. A missing
// storage key means a fresh client and leaves the cart empty.
func (s *CartStore) Rehydrate(ctx context.Context) error {
	var lines []CartLine
	err := s.persister.Load(ctx, CartStorageKey, &lines)
	if err != nil {
		if stderrors.Is(err, ErrKeyNotFound) {
			return nil
		}
		return errors.WrapOpComponent(err, errors.OpLoad, "cart-store")
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return nil
}

// AddItem adds quantity units of the item to the cart. A quantity
// below one is treated as one. If a line with the same identity key
// already exists its quantity is incremented and the existing display
// snapshot is kept; otherwise the item is appended as a new line.
// No upper bound on quantity is enforced at this layer.
func (s *CartStore) AddItem(item CartLine, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mutate(func() {
		key := item.Key()
		for i := range s.lines {
			if s.lines[i].Key() == key {
				s.lines[i].Quantity += quantity
				return
			}
		}
		line := cloneLine(item)
		line.Quantity = quantity
		s.lines = append(s.lines, line)
	})
}

// RemoveItem deletes the line matching the identity key. Removing an
// absent line is a no-op, not an error.
func (s *CartStore) RemoveItem(productID int64, variantID *int64) {
	s.mutate(func() {
		key := keyOf(productID, variantID)
		for i := range s.lines {
			if s.lines[i].Key() == key {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
				return
			}
		}
	})
}

// UpdateQuantity overwrites the quantity of the matching line. A
// quantity of zero or below removes the line. Updating an absent
// identity key is a no-op.
func (s *CartStore) UpdateQuantity(productID int64, quantity int, variantID *int64) {
	if quantity <= 0 {
		s.RemoveItem(productID, variantID)
		return
	}
	s.mutate(func() {
		key := keyOf(productID, variantID)
		for i := range s.lines {
			if s.lines[i].Key() == key {
				s.lines[i].Quantity = quantity
				return
			}
		}
	})
}

// Clear empties the cart.
func (s *CartStore) Clear() {
	s.mutate(func() {
		s.lines = nil
	})
}

// Total returns the sum of price_cents * quantity over all lines.
func (s *CartStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, l := range s.lines {
		total += l.PriceCents * int64(l.Quantity)
	}
	return total
}

// ItemCount returns the sum of quantities, not the number of lines.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

// Lines returns a snapshot of the current collection.
func (s *CartStore) Lines() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Restore replaces the collection and persists it without firing the
// mutation hook. Used by the reconciler's merge write-back and the
// dispatcher's rollback.
func (s *CartStore) Restore(lines []CartLine) {
	s.mu.Lock()
	s.lines = cloneLines(lines)
	snapshot := cloneLines(s.lines)
	s.mu.Unlock()

	s.persist(snapshot)
}

// mutate runs fn under the lock, persists the result synchronously,
// and notifies the mutation hook with the pre-mutation snapshot.
func (s *CartStore) mutate(fn func()) {
	s.mu.Lock()
	before := cloneLines(s.lines)
	fn()
	after := cloneLines(s.lines)
	hook := s.onMutate
	s.mu.Unlock()

	s.persist(after)
	if hook != nil {
		hook(before)
	}
}

// persist writes the collection under the fixed storage key. Local
// mutations never fail from the caller's point of view; a persist
// error is logged and the in-memory state stands.
func (s *CartStore) persist(lines []CartLine) {
	if lines == nil {
		lines = []CartLine{}
	}
	if err := s.persister.Save(context.Background(), CartStorageKey, lines); err != nil {
		s.logger.LogError(context.Background(),
			errors.NewStorageError(errors.OpPersist, err),
			"failed to persist cart collection",
			slog.Int("lines", len(lines)),
		)
	}
}
