package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"watchtrack/models"
	watchlistsvc "watchtrack/services/watchlist"
)

type watchlistService interface {
	List(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	Add(ctx context.Context, userID string, ins models.WatchlistInsert) (models.WatchlistItem, error)
	Remove(ctx context.Context, userID, id string) error
	SetWatched(ctx context.Context, userID, id string, watched bool) error
	SetRating(ctx context.Context, userID, id string, rating *int) error
}

var _ watchlistService = (*watchlistsvc.Service)(nil)

// WatchlistHandler exposes the user-scoped watchlist CRUD surface. Every
// route behind it requires RequireAuth.
type WatchlistHandler struct {
	Service watchlistService
}

func NewWatchlistHandler(s watchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: s}
}

// List responds with all of the caller's items, newest first.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	items, err := h.Service.List(r.Context(), user.ID)
	if err != nil {
		log.Printf("[watchlist-handler] list failed for user %s: %v", user.ID, err)
		http.Error(w, "failed to load watchlist", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Add inserts a new item snapshotted from a search result.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var ins models.WatchlistInsert
	if err := decodeJSON(r, &ins); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Add(r.Context(), user.ID, ins)
	if err != nil {
		switch {
		case errors.Is(err, watchlistsvc.ErrDuplicateItem):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, watchlistsvc.ErrInvalidItem), errors.Is(err, watchlistsvc.ErrInvalidMediaType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("[watchlist-handler] add failed for user %s: %v", user.ID, err)
			http.Error(w, "failed to add item", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Remove deletes one item by id.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.Remove(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, watchlistsvc.ErrItemNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("[watchlist-handler] remove failed for user %s: %v", user.ID, err)
		http.Error(w, "failed to remove item", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetWatched updates the watched flag of one item.
func (h *WatchlistHandler) SetWatched(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		IsWatched bool `json:"is_watched"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.SetWatched(r.Context(), user.ID, id, req.IsWatched); err != nil {
		if errors.Is(err, watchlistsvc.ErrItemNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("[watchlist-handler] watched update failed for user %s: %v", user.ID, err)
		http.Error(w, "failed to update item", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRating stores or clears the 1..5 rating of one item. A null rating in
// the body clears it.
func (h *WatchlistHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Rating *int `json:"rating"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.SetRating(r.Context(), user.ID, id, req.Rating); err != nil {
		switch {
		case errors.Is(err, watchlistsvc.ErrItemNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, watchlistsvc.ErrInvalidRating):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("[watchlist-handler] rating update failed for user %s: %v", user.ID, err)
			http.Error(w, "failed to update item", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
