package cartkit

import "context"

// CartRemote accesses the authenticated principal's cart collection on
// the remote store. The remote is a synchronization target, not a
// read-through cache: Fetch only happens at reconciliation points.
//
// Implementations must fail with an authentication-kind error (see the
// errors package) when no valid credential is available, before or
// instead of attempting the network call.
type CartRemote interface {
	// Fetch retrieves the current remote cart snapshot
	Fetch(ctx context.Context) ([]CartLine, error)

	// Replace overwrites the remote cart with the full collection
	Replace(ctx context.Context, lines []CartLine) error
}

// FavoritesRemote accesses the authenticated principal's favorites.
// The remote collection is membership-only, mutated per product id.
type FavoritesRemote interface {
	// Fetch retrieves the current remote favorite ids
	Fetch(ctx context.Context) ([]int64, error)

	// Add marks a product as favorite on the remote store
	Add(ctx context.Context, productID int64) error

	// Remove unmarks a product on the remote store
	Remove(ctx context.Context, productID int64) error
}
