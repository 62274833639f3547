// Package httptransport implements the remote accessor interfaces over
// a JSON REST API, plus the matching server handler.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
	cartErrors "github.com/c0deZ3R0/go-cart-kit/errors"
)

// ErrNoCredential is returned by a CredentialSource when no user is
// authenticated. The client maps it to an authentication-kind error
// without issuing the request.
var ErrNoCredential = stdErrors.New("no credential available")

// CredentialSource supplies the bearer token for authenticated calls.
// Implementations return ErrNoCredential while the user is anonymous.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredential is a CredentialSource holding a fixed token. An
// empty token behaves as anonymous.
type StaticCredential string

func (c StaticCredential) Token(ctx context.Context) (string, error) {
	if c == "" {
		return "", ErrNoCredential
	}
	return string(c), nil
}

const defaultRequestTimeout = 30 * time.Second

// Client calls the sync API. It implements cartkit.CartRemote;
// FavoritesClient adapts it to cartkit.FavoritesRemote. Every call
// resolves a credential first and fails fast with an
// authentication-kind error when none is available, so anonymous
// clients never issue doomed requests.
type Client struct {
	baseURL     string
	http        *http.Client
	credentials CredentialSource
	sessionID   string
}

var _ cartkit.CartRemote = (*Client)(nil)

// ClientOption configures a Client using the functional options pattern
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(cl *http.Client) ClientOption {
	return func(c *Client) {
		c.http = cl
	}
}

// WithSessionID attaches a client session id to every request for
// server-side log correlation.
func WithSessionID(sessionID string) ClientOption {
	return func(c *Client) {
		c.sessionID = sessionID
	}
}

// NewClient creates a sync API client for the given base URL.
func NewClient(baseURL string, credentials CredentialSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		http:        &http.Client{Timeout: defaultRequestTimeout},
		credentials: credentials,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the base URL for the client
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch retrieves the authenticated user's cart.
func (c *Client) Fetch(ctx context.Context) ([]cartkit.CartLine, error) {
	var payload cartPayload
	if err := c.do(ctx, http.MethodGet, "/sync/cart", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// Replace overwrites the authenticated user's cart with the full
// collection.
func (c *Client) Replace(ctx context.Context, lines []cartkit.CartLine) error {
	if lines == nil {
		lines = []cartkit.CartLine{}
	}
	return c.do(ctx, http.MethodPut, "/sync/cart", cartPayload{Items: lines}, nil)
}

// FetchFavorites retrieves the authenticated user's favorite ids.
func (c *Client) FetchFavorites(ctx context.Context) ([]int64, error) {
	var payload favoritesPayload
	if err := c.do(ctx, http.MethodGet, "/sync/favorites", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Favorites, nil
}

// AddFavorite marks the product as a favorite on the remote store.
func (c *Client) AddFavorite(ctx context.Context, productID int64) error {
	return c.do(ctx, http.MethodPost, "/sync/favorites", favoriteRequest{ProductID: productID}, nil)
}

// RemoveFavorite unmarks the product on the remote store.
func (c *Client) RemoveFavorite(ctx context.Context, productID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/sync/favorites/%d", productID), nil, nil)
}

// do issues one authenticated JSON request. in is marshaled as the
// request body when non-nil; out is unmarshaled from the response body
// when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return cartErrors.NewAuthError(cartErrors.OpTransport, err)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return cartErrors.NewWithComponent(cartErrors.OpTransport, "transport/http", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return cartErrors.NewWithComponent(cartErrors.OpTransport, "transport/http", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionID != "" {
		req.Header.Set("X-Client-Session", c.sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return cartErrors.NewNetworkError(cartErrors.OpTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return cartErrors.NewAuthError(cartErrors.OpTransport,
			fmt.Errorf("server rejected credential: %s", resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cartErrors.NewNetworkError(cartErrors.OpTransport,
			fmt.Errorf("unexpected status: %s", readErrorStatus(resp)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return cartErrors.NewNetworkError(cartErrors.OpTransport,
				fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

// readErrorStatus folds the server's error message, if any, into the
// status for log readability.
func readErrorStatus(resp *http.Response) string {
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Sprintf("%s (%s)", resp.Status, body.Error)
	}
	return resp.Status
}

// FavoritesClient adapts the Client to cartkit.FavoritesRemote, whose
// Fetch signature differs from the cart accessor's.
func (c *Client) FavoritesClient() cartkit.FavoritesRemote {
	return favoritesView{c}
}

var _ cartkit.FavoritesRemote = favoritesView{}

type favoritesView struct {
	c *Client
}

func (v favoritesView) Fetch(ctx context.Context) ([]int64, error) {
	return v.c.FetchFavorites(ctx)
}

func (v favoritesView) Add(ctx context.Context, productID int64) error {
	return v.c.AddFavorite(ctx, productID)
}

func (v favoritesView) Remove(ctx context.Context, productID int64) error {
	return v.c.RemoveFavorite(ctx, productID)
}
