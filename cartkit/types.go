// Package cartkit implements local-first cart and favorites state for
// storefront clients. Collections live in memory, persist durably on
// every mutation, and synchronize with a remote store through an
// optimistic dispatcher and a one-shot login reconciler.
package cartkit

// Storage keys for the persisted collections. Each key holds only the
// plain collection value: no metadata, no version field.
const (
	CartStorageKey      = "storefront.cart"
	FavoritesStorageKey = "storefront.favorites"
)

// CartLine is one line of the cart. Title, price, image and SKU are a
// denormalized display snapshot captured at add time; they are not
// re-fetched when the product changes.
type CartLine struct {
	ProductID  int64  `json:"product_id"`
	VariantID  *int64 `json:"variant_id,omitempty"`
	Title      string `json:"title,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	SKU        string `json:"sku,omitempty"`
	Quantity   int    `json:"quantity"`
}

// LineKey is the identity of a cart line. An absent variant is a
// distinct identity from any present variant, including variant id 0,
// which is why the key carries HasVariant rather than a sentinel value.
type LineKey struct {
	ProductID  int64
	VariantID  int64
	HasVariant bool
}

// Key returns the identity key of the line.
func (l CartLine) Key() LineKey {
	k := LineKey{ProductID: l.ProductID}
	if l.VariantID != nil {
		k.VariantID = *l.VariantID
		k.HasVariant = true
	}
	return k
}

// keyOf builds a LineKey from the identifier pair used by the mutation
// methods, where a nil variant means "the base product".
func keyOf(productID int64, variantID *int64) LineKey {
	k := LineKey{ProductID: productID}
	if variantID != nil {
		k.VariantID = *variantID
		k.HasVariant = true
	}
	return k
}

// cloneLine copies a line, including the variant pointer, so snapshots
// never alias live store state.
func cloneLine(l CartLine) CartLine {
	out := l
	if l.VariantID != nil {
		v := *l.VariantID
		out.VariantID = &v
	}
	return out
}

// cloneLines deep-copies a cart collection.
func cloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = cloneLine(l)
	}
	return out
}
