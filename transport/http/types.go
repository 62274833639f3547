package httptransport

import (
	"context"
	"sort"
	"sync"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
)

// Wire types for the sync API. The cart travels as a full collection in
// both directions; favorites are fetched whole but mutated per product.

type cartPayload struct {
	Items []cartkit.CartLine `json:"items"`
}

type favoritesPayload struct {
	Favorites []int64 `json:"favorites"`
}

type favoriteRequest struct {
	ProductID int64 `json:"product_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// MemoryCollectionStore is an in-memory CollectionStore for tests and
// demos. Production deployments use the postgres implementation.
type MemoryCollectionStore struct {
	mu        sync.Mutex
	carts     map[string][]cartkit.CartLine
	favorites map[string]map[int64]struct{}
}

var _ cartkit.CollectionStore = (*MemoryCollectionStore)(nil)

// NewMemoryCollectionStore creates an empty in-memory store.
func NewMemoryCollectionStore() *MemoryCollectionStore {
	return &MemoryCollectionStore{
		carts:     make(map[string][]cartkit.CartLine),
		favorites: make(map[string]map[int64]struct{}),
	}
}

func (s *MemoryCollectionStore) GetCart(ctx context.Context, userID string) ([]cartkit.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cartkit.CartLine(nil), s.carts[userID]...), nil
}

func (s *MemoryCollectionStore) ReplaceCart(ctx context.Context, userID string, lines []cartkit.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append([]cartkit.CartLine(nil), lines...)
	return nil
}

func (s *MemoryCollectionStore) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.favorites[userID]))
	for id := range s.favorites[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryCollectionStore) AddFavorite(ctx context.Context, userID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.favorites[userID] == nil {
		s.favorites[userID] = make(map[int64]struct{})
	}
	s.favorites[userID][productID] = struct{}{}
	return nil
}

func (s *MemoryCollectionStore) RemoveFavorite(ctx context.Context, userID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favorites[userID], productID)
	return nil
}
