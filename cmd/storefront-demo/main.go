// Command storefront-demo exercises the full sync flow against an
// in-process server: anonymous browsing, login reconciliation, the
// debounced push path, and logout.
package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
	"github.com/c0deZ3R0/go-cart-kit/logging"
	"github.com/c0deZ3R0/go-cart-kit/storage/sqlite"
	httptransport "github.com/c0deZ3R0/go-cart-kit/transport/http"
)

func main() {
	logging.Init(logging.GetConfigFromEnv())
	ctx := context.Background()

	// Server side: in-memory collections with a pre-existing account
	// cart, the way a returning customer would have one.
	collections := httptransport.NewMemoryCollectionStore()
	seedAccount(ctx, collections)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logging.Error("failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}
	server := &http.Server{Handler: httptransport.NewHandler(collections, httptransport.TokenMap{
		"demo-token": "demo-user",
	})}
	go server.Serve(listener)
	defer server.Close()
	baseURL := "http://" + listener.Addr().String()

	// Client side: durable local state in a scratch SQLite database.
	dir, err := os.MkdirTemp("", "storefront-demo")
	if err != nil {
		logging.Error("failed to create scratch dir", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	persister, err := sqlite.NewWithDataSource("file:" + filepath.Join(dir, "storefront.db"))
	if err != nil {
		logging.Error("failed to open local store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer persister.Close()

	cart := cartkit.NewCartStore(persister, nil)
	favorites := cartkit.NewFavoritesStore(persister, nil)
	if err := cart.Rehydrate(ctx); err != nil {
		logging.Error("cart rehydration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := favorites.Rehydrate(ctx); err != nil {
		logging.Error("favorites rehydration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := httptransport.NewClient(baseURL, httptransport.StaticCredential("demo-token"))
	syncer := cartkit.NewSyncer(cart, favorites, client, client.FavoritesClient(), &cartkit.SyncerConfig{
		DebounceWindow: 200 * time.Millisecond,
	})

	logging.Info("session started", slog.String("session_id", syncer.SessionID()))

	// Anonymous browsing: everything stays local.
	variantID := int64(2)
	cart.AddItem(cartkit.CartLine{
		ProductID:  101,
		VariantID:  &variantID,
		Title:      "Canvas Tote",
		PriceCents: 2400,
		SKU:        "TOTE-M",
	}, 1)
	favorites.Add(101)
	favorites.Add(205)

	logging.Info("anonymous state",
		slog.Int("cart_items", cart.ItemCount()),
		slog.Int64("cart_total_cents", cart.Total()),
		slog.Int("favorites", favorites.Count()),
	)

	// Login: one-shot reconciliation merges both sides.
	if err := syncer.HandleLogin(ctx); err != nil {
		logging.LogError(ctx, err, "login reconciliation failed")
		os.Exit(1)
	}
	logging.Info("reconciled state",
		slog.Int("cart_items", cart.ItemCount()),
		slog.Int64("cart_total_cents", cart.Total()),
		slog.Int("favorites", favorites.Count()),
	)

	// Authenticated mutations ride the debounced push path.
	cart.UpdateQuantity(101, 3, &variantID)
	favorites.Toggle(301)
	if err := syncer.Flush(ctx); err != nil {
		logging.LogError(ctx, err, "push failed")
	}

	remoteCart, err := client.Fetch(ctx)
	if err != nil {
		logging.LogError(ctx, err, "remote fetch failed")
		os.Exit(1)
	}
	logging.Info("remote state after push", slog.Int("cart_lines", len(remoteCart)))

	// Logout clears the cart locally; favorites stay.
	syncer.HandleLogout(ctx)
	logging.Info("logged out",
		slog.Int("cart_items", cart.ItemCount()),
		slog.Int("favorites", favorites.Count()),
	)
}

// seedAccount installs the state the demo user left behind on another
// device.
func seedAccount(ctx context.Context, store *httptransport.MemoryCollectionStore) {
	_ = store.ReplaceCart(ctx, "demo-user", []cartkit.CartLine{
		{ProductID: 300, Title: "Wool Beanie", PriceCents: 1800, Quantity: 1},
	})
	_ = store.AddFavorite(ctx, "demo-user", 205)
	_ = store.AddFavorite(ctx, "demo-user", 300)
}
