package cartkit

import (
	"context"
	stderrors "errors"
	"testing"
)

func TestFavoritesStoreToggle(t *testing.T) {
	favorites := NewFavoritesStore(NewMemoryPersister(), nil)

	if !favorites.Toggle(42) {
		t.Error("first toggle should report favorited")
	}
	if !favorites.IsFavorite(42) {
		t.Error("expected membership after first toggle")
	}

	if favorites.Toggle(42) {
		t.Error("second toggle should report unfavorited")
	}
	if favorites.IsFavorite(42) {
		t.Error("expected no membership after second toggle")
	}

	// Toggle twice returns to the starting state regardless of it.
	favorites.Add(7)
	favorites.Toggle(7)
	favorites.Toggle(7)
	if !favorites.IsFavorite(7) {
		t.Error("double toggle should restore the original membership")
	}
}

func TestFavoritesStoreSetSemantics(t *testing.T) {
	favorites := NewFavoritesStore(NewMemoryPersister(), nil)

	favorites.Add(1)
	favorites.Add(1)
	favorites.Add(2)

	if got := favorites.Count(); got != 2 {
		t.Errorf("expected 2 members, got %d", got)
	}

	favorites.Remove(99)
	if got := favorites.Count(); got != 2 {
		t.Errorf("removing a non-member changed the count to %d", got)
	}
}

func TestFavoritesStoreIDsSorted(t *testing.T) {
	favorites := NewFavoritesStore(NewMemoryPersister(), nil)
	for _, id := range []int64{9, 3, 7, 1} {
		favorites.Add(id)
	}

	ids := favorites.IDs()
	want := []int64{1, 3, 7, 9}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("expected sorted snapshot %v, got %v", want, ids)
		}
	}
}

func TestFavoritesStoreRehydrate(t *testing.T) {
	persister := NewMemoryPersister()

	first := NewFavoritesStore(persister, nil)
	first.Add(5)
	first.Add(6)

	second := NewFavoritesStore(persister, nil)
	if err := second.Rehydrate(context.Background()); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	if !sameIDs(second.IDs(), []int64{5, 6}) {
		t.Errorf("expected rehydrated set {5,6}, got %v", second.IDs())
	}
}

func TestFavoritesStoreClearPurgesStorage(t *testing.T) {
	persister := NewMemoryPersister()
	favorites := NewFavoritesStore(persister, nil)
	favorites.Add(5)
	favorites.Add(6)

	favorites.Clear(context.Background())

	if got := favorites.Count(); got != 0 {
		t.Fatalf("expected empty set after clear, got %d members", got)
	}

	// The storage key itself must be gone, not just hold an empty value.
	var ids []int64
	err := persister.Load(context.Background(), FavoritesStorageKey, &ids)
	if !stderrors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected storage key deleted, got err=%v ids=%v", err, ids)
	}

	// A fresh store over the same persister must rehydrate empty.
	fresh := NewFavoritesStore(persister, nil)
	if err := fresh.Rehydrate(context.Background()); err != nil {
		t.Fatalf("rehydrate after clear: %v", err)
	}
	if got := fresh.Count(); got != 0 {
		t.Errorf("cleared favorites resurrected on rehydration: %d members", got)
	}
}

func TestFavoritesStoreRestoreDoesNotFireHook(t *testing.T) {
	favorites := NewFavoritesStore(NewMemoryPersister(), nil)

	fired := 0
	favorites.SetMutationHook(func(before []int64) { fired++ })

	favorites.Add(1)
	if fired != 1 {
		t.Fatalf("expected hook fired once for Add, got %d", fired)
	}

	favorites.Restore([]int64{2, 3})
	if fired != 1 {
		t.Errorf("expected Restore to bypass the mutation hook, fired %d times", fired)
	}
	if !sameIDs(favorites.IDs(), []int64{2, 3}) {
		t.Errorf("expected restored membership {2,3}, got %v", favorites.IDs())
	}
}
