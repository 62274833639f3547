package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/c0deZ3R0/go-cart-kit/cartkit"
	"github.com/c0deZ3R0/go-cart-kit/logging"
)

// Authenticator resolves a bearer token to a user id. Implementations
// return false for unknown or expired tokens.
type Authenticator interface {
	Authenticate(token string) (userID string, ok bool)
}

// TokenMap is a static token-to-user Authenticator for tests and demos.
type TokenMap map[string]string

func (m TokenMap) Authenticate(token string) (string, bool) {
	userID, ok := m[token]
	return userID, ok
}

// SyncHandler serves the sync API over a CollectionStore:
//
//	GET    /sync/cart            fetch the user's cart
//	PUT    /sync/cart            replace the user's cart
//	GET    /sync/favorites       fetch the user's favorite ids
//	POST   /sync/favorites       add one favorite
//	DELETE /sync/favorites/{id}  remove one favorite
//
// Every route requires a bearer token; a missing or unknown token gets
// 401 so clients can classify the failure as authentication.
type SyncHandler struct {
	store  cartkit.CollectionStore
	auth   Authenticator
	logger *logging.Logger
}

// NewHandler creates a sync API handler.
func NewHandler(store cartkit.CollectionStore, auth Authenticator) *SyncHandler {
	return &SyncHandler{
		store:  store,
		auth:   auth,
		logger: logging.WithComponent(logging.Component("sync-handler")),
	}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing or invalid credential")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/sync")
	switch {
	case path == "/cart":
		h.handleCart(w, r, userID)
	case path == "/favorites":
		h.handleFavorites(w, r, userID)
	case strings.HasPrefix(path, "/favorites/"):
		h.handleFavoriteByID(w, r, userID, strings.TrimPrefix(path, "/favorites/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *SyncHandler) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return h.auth.Authenticate(token)
}

func (h *SyncHandler) handleCart(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		lines, err := h.store.GetCart(r.Context(), userID)
		if err != nil {
			h.respondStoreError(w, r, err, "failed to load cart")
			return
		}
		if lines == nil {
			lines = []cartkit.CartLine{}
		}
		respondWithJSON(w, http.StatusOK, cartPayload{Items: lines})

	case http.MethodPut:
		var payload cartPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid cart payload")
			return
		}
		for _, l := range payload.Items {
			if l.Quantity < 1 {
				respondWithError(w, http.StatusBadRequest, "line quantity must be at least 1")
				return
			}
		}
		if err := h.store.ReplaceCart(r.Context(), userID, payload.Items); err != nil {
			h.respondStoreError(w, r, err, "failed to replace cart")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *SyncHandler) handleFavorites(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		ids, err := h.store.GetFavorites(r.Context(), userID)
		if err != nil {
			h.respondStoreError(w, r, err, "failed to load favorites")
			return
		}
		if ids == nil {
			ids = []int64{}
		}
		respondWithJSON(w, http.StatusOK, favoritesPayload{Favorites: ids})

	case http.MethodPost:
		var payload favoriteRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ProductID == 0 {
			respondWithError(w, http.StatusBadRequest, "invalid favorite payload")
			return
		}
		if err := h.store.AddFavorite(r.Context(), userID, payload.ProductID); err != nil {
			h.respondStoreError(w, r, err, "failed to add favorite")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *SyncHandler) handleFavoriteByID(w http.ResponseWriter, r *http.Request, userID, rawID string) {
	if r.Method != http.MethodDelete {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	productID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), userID, productID); err != nil {
		h.respondStoreError(w, r, err, "failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SyncHandler) respondStoreError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.logger.LogError(r.Context(), err, msg,
		slog.String("session", r.Header.Get("X-Client-Session")),
	)
	respondWithError(w, http.StatusInternalServerError, msg)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
