package cartkit

import "context"

// CollectionStore is the server-side counterpart of the client stores:
// per-user cart and favorites collections keyed by the authenticated
// user id. The HTTP handler serves the remote accessor API from an
// implementation of this interface.
type CollectionStore interface {
	// GetCart returns the user's cart. An unknown user has an empty cart.
	GetCart(ctx context.Context, userID string) ([]CartLine, error)

	// ReplaceCart overwrites the user's cart with the full collection.
	ReplaceCart(ctx context.Context, userID string, lines []CartLine) error

	// GetFavorites returns the user's favorite product ids.
	// An unknown user has no favorites.
	GetFavorites(ctx context.Context, userID string) ([]int64, error)

	// AddFavorite marks the product as a favorite. Adding an existing
	// member is a no-op.
	AddFavorite(ctx context.Context, userID string, productID int64) error

	// RemoveFavorite unmarks the product. Removing a non-member is a
	// no-op.
	RemoveFavorite(ctx context.Context, userID string, productID int64) error
}
