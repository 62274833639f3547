package cartkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/c0deZ3R0/go-cart-kit/errors"
)

// mockCartRemote implements CartRemote against an in-memory collection
// with injectable failures.
type mockCartRemote struct {
	mu           sync.Mutex
	lines        []CartLine
	fetchErr     error
	replaceErr   error
	fetchCalls   int
	replaceCalls int
}

func (m *mockCartRemote) Fetch(ctx context.Context) ([]CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return cloneLines(m.lines), nil
}

func (m *mockCartRemote) Replace(ctx context.Context, lines []CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.lines = cloneLines(lines)
	return nil
}

func (m *mockCartRemote) snapshot() []CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.lines)
}

// mockFavoritesRemote implements FavoritesRemote with per-id calls
// recorded for assertions.
type mockFavoritesRemote struct {
	mu         sync.Mutex
	ids        map[int64]struct{}
	fetchErr   error
	addErr     error
	removeErr  error
	fetchCalls int
	added      []int64
	removed    []int64
}

func newMockFavoritesRemote(ids ...int64) *mockFavoritesRemote {
	m := &mockFavoritesRemote{ids: make(map[int64]struct{})}
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return m
}

func (m *mockFavoritesRemote) Fetch(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *mockFavoritesRemote) Add(ctx context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.ids[productID] = struct{}{}
	m.added = append(m.added, productID)
	return nil
}

func (m *mockFavoritesRemote) Remove(ctx context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.ids, productID)
	m.removed = append(m.removed, productID)
	return nil
}

// failingPersister wraps a MemoryPersister with injectable failures.
type failingPersister struct {
	inner     *MemoryPersister
	saveErr   error
	loadErr   error
	deleteErr error
}

func newFailingPersister() *failingPersister {
	return &failingPersister{inner: NewMemoryPersister()}
}

func (p *failingPersister) Save(ctx context.Context, key string, value any) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	return p.inner.Save(ctx, key, value)
}

func (p *failingPersister) Load(ctx context.Context, key string, out any) error {
	if p.loadErr != nil {
		return p.loadErr
	}
	return p.inner.Load(ctx, key, out)
}

func (p *failingPersister) Delete(ctx context.Context, key string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	return p.inner.Delete(ctx, key)
}

func (p *failingPersister) Close() error { return p.inner.Close() }

// Helpers shared across tests.

func variant(id int64) *int64 { return &id }

func line(productID int64, variantID *int64, priceCents int64, quantity int) CartLine {
	return CartLine{
		ProductID:  productID,
		VariantID:  variantID,
		Title:      fmt.Sprintf("product-%d", productID),
		PriceCents: priceCents,
		Quantity:   quantity,
	}
}

func netErr() error {
	return errors.NewNetworkError(errors.OpPush, fmt.Errorf("connection refused"))
}

func authErr() error {
	return errors.NewAuthError(errors.OpPush, fmt.Errorf("no credential"))
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int64(nil), a...)
	bs := append([]int64(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
