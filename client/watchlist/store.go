// Package watchlist keeps a client-local cache of the signed-in user's
// watchlist, synchronized with the remote store by explicit fetches and a
// live change subscription. Mutations write through to the remote store and
// become visible locally only after the subscription triggers a refetch, so
// callers must treat them as fire-and-confirm-by-eventual-refresh.
package watchlist

import (
	"context"
	"errors"
	"log"
	"sync"

	"watchtrack/models"
)

var (
	// ErrNotAuthenticated is returned by mutations when no session is active.
	ErrNotAuthenticated = errors.New("user not authenticated")
	// ErrInvalidRating rejects ratings outside 1..5 before any request is made.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Remote is the row store the cache synchronizes against. Every operation is
// scoped by the owning user id even though the remote enforces ownership too.
type Remote interface {
	ListItems(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	InsertItem(ctx context.Context, ins models.WatchlistInsert) error
	DeleteItem(ctx context.Context, id, userID string) error
	UpdateWatched(ctx context.Context, id, userID string, watched bool) error
	UpdateRating(ctx context.Context, id, userID string, rating *int) error
}

// ChangeFeed delivers "something changed" notifications for one user's rows.
// The callback carries no row data; the subscriber refetches everything.
type ChangeFeed interface {
	Subscribe(ctx context.Context, userID string, onChange func()) (cancel func(), err error)
}

// Store is the per-session watchlist cache.
type Store struct {
	remote Remote
	feed   ChangeFeed // nil disables live updates

	mu          sync.RWMutex
	user        *models.User
	items       []models.WatchlistItem
	loading     bool
	unsubscribe func()
}

// NewStore creates a store with no active session. It reports loading until
// the first session transition settles.
func NewStore(remote Remote, feed ChangeFeed) *Store {
	return &Store{
		remote:  remote,
		feed:    feed,
		items:   []models.WatchlistItem{},
		loading: true,
	}
}

// OnSessionChange reacts to an identity transition. A new user triggers a
// fetch and opens the single change subscription for that user; a nil user
// releases the subscription and clears the cache. Exactly one subscription
// is open while a session is active.
func (s *Store) OnSessionChange(ctx context.Context, user *models.User) {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if user == nil {
		s.user = nil
		s.items = []models.WatchlistItem{}
		s.loading = false
		s.mu.Unlock()
		return
	}
	u := *user
	s.user = &u
	s.loading = true
	s.mu.Unlock()

	s.Fetch(ctx)
	s.subscribe(ctx, u.ID)
}

// Fetch reloads the cache from the remote store, newest first. Transport
// failures are logged and degrade to an empty list; they are never surfaced.
func (s *Store) Fetch(ctx context.Context) {
	s.mu.RLock()
	user := s.user
	s.mu.RUnlock()
	if user == nil {
		return
	}

	items, err := s.remote.ListItems(ctx, user.ID)
	if err != nil {
		log.Printf("[watchlist-store] fetch failed: %v", err)
		items = []models.WatchlistItem{}
	}
	if items == nil {
		items = []models.WatchlistItem{}
	}

	s.mu.Lock()
	// A session change may have raced the fetch; stale results for a
	// different or cleared user must not repopulate the cache.
	if s.user == nil || s.user.ID != user.ID {
		s.mu.Unlock()
		return
	}
	s.items = items
	s.loading = false
	s.mu.Unlock()
}

// Add writes a new item snapshotted from result. The cache is not updated
// optimistically; the change subscription refreshes it.
func (s *Store) Add(ctx context.Context, result models.SearchResult) error {
	user := s.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	return s.remote.InsertItem(ctx, models.NewWatchlistInsert(user.ID, result))
}

// Remove deletes the item by id, scoped to the owning user id as defense in
// depth against cross-user deletion.
func (s *Store) Remove(ctx context.Context, id string) error {
	user := s.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	return s.remote.DeleteItem(ctx, id, user.ID)
}

// SetWatched updates the watched flag of the item.
func (s *Store) SetWatched(ctx context.Context, id string, watched bool) error {
	user := s.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	return s.remote.UpdateWatched(ctx, id, user.ID, watched)
}

// SetRating stores a 1..5 rating, or clears it when rating is nil. The range
// is validated here; the remote store does not enforce it.
func (s *Store) SetRating(ctx context.Context, id string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return ErrInvalidRating
	}
	user := s.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	return s.remote.UpdateRating(ctx, id, user.ID, rating)
}

// IsTracked reports whether any cached item has the TMDB id, irrespective of
// media kind. A movie and a show sharing an id are indistinguishable here;
// IsTrackedKind disambiguates.
func (s *Store) IsTracked(tmdbID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.TMDBID == tmdbID {
			return true
		}
	}
	return false
}

// IsTrackedKind reports whether the exact (TMDB id, media kind) pair is cached.
func (s *Store) IsTrackedKind(tmdbID int64, mediaType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.TMDBID == tmdbID && item.MediaType == mediaType {
			return true
		}
	}
	return false
}

// Items returns a copy of the cache, newest first.
func (s *Store) Items() []models.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.WatchlistItem{}, s.items...)
}

// WatchedItems returns the cached items marked watched.
func (s *Store) WatchedItems() []models.WatchlistItem {
	return s.partition(true)
}

// UnwatchedItems returns the cached items not yet watched.
func (s *Store) UnwatchedItems() []models.WatchlistItem {
	return s.partition(false)
}

// Loading reports whether the cache has settled since the last session change.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Close releases the subscription and clears the cache.
func (s *Store) Close() {
	s.OnSessionChange(context.Background(), nil)
}

func (s *Store) partition(watched bool) []models.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WatchlistItem{}
	for _, item := range s.items {
		if item.IsWatched == watched {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store) currentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// subscribe opens the live change subscription. Failure degrades to "no live
// updates": it is logged and never prevents the store from working.
func (s *Store) subscribe(ctx context.Context, userID string) {
	if s.feed == nil {
		return
	}
	cancel, err := s.feed.Subscribe(ctx, userID, func() {
		s.Fetch(context.Background())
	})
	if err != nil {
		log.Printf("[watchlist-store] subscription failed, live updates disabled: %v", err)
		return
	}

	s.mu.Lock()
	// The session may have changed while the subscription was opening.
	if s.user == nil || s.user.ID != userID {
		s.mu.Unlock()
		cancel()
		return
	}
	s.unsubscribe = cancel
	s.mu.Unlock()
}
