// Package watchlist is the server-side watchlist: user-scoped CRUD over
// watchlist_items with a change event published after every successful write.
package watchlist

import (
	"context"
	"errors"
	"log"

	"watchtrack/internal/database"
	"watchtrack/internal/realtime"
	"watchtrack/models"
)

const table = "watchlist_items"

var (
	// ErrInvalidRating rejects ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidMediaType rejects kinds other than movie and tv.
	ErrInvalidMediaType = errors.New("media type must be movie or tv")
	// ErrInvalidItem rejects inserts without a TMDB id.
	ErrInvalidItem = errors.New("watchlist item requires a tmdb id")

	// Re-exported storage errors so handlers need not import the database package.
	ErrItemNotFound  = database.ErrItemNotFound
	ErrDuplicateItem = database.ErrDuplicateItem
)

type changeFeed interface {
	Publish(userID string, change realtime.Change)
}

var _ changeFeed = (*realtime.Hub)(nil)

// Service owns all watchlist writes and reads for the HTTP layer.
type Service struct {
	repo *database.WatchlistRepository
	feed changeFeed
}

// NewService wires the watchlist service to storage and the change feed.
func NewService(repo *database.WatchlistRepository, feed changeFeed) *Service {
	return &Service{repo: repo, feed: feed}
}

// List returns every item owned by userID, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add inserts a snapshot of a search result for userID. The title falls back
// to "Unknown Title" when the client sent none.
func (s *Service) Add(ctx context.Context, userID string, ins models.WatchlistInsert) (models.WatchlistItem, error) {
	if ins.TMDBID <= 0 {
		return models.WatchlistItem{}, ErrInvalidItem
	}
	if !models.ValidMediaType(ins.MediaType) {
		return models.WatchlistItem{}, ErrInvalidMediaType
	}
	ins.UserID = userID
	if ins.Title == "" {
		ins.Title = "Unknown Title"
	}

	item, err := s.repo.Insert(ctx, ins)
	if err != nil {
		return models.WatchlistItem{}, err
	}
	log.Printf("[watchlist] user %s added %s (%q)", userID, item.Key(), item.Title)
	s.publish(userID, realtime.OpInsert)
	return item, nil
}

// Remove deletes the item by id, scoped to the owning user.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	log.Printf("[watchlist] user %s removed item %s", userID, id)
	s.publish(userID, realtime.OpDelete)
	return nil
}

// SetWatched flips the watched flag on the item.
func (s *Service) SetWatched(ctx context.Context, userID, id string, watched bool) error {
	if err := s.repo.SetWatched(ctx, id, userID, watched); err != nil {
		return err
	}
	s.publish(userID, realtime.OpUpdate)
	return nil
}

// SetRating stores a 1..5 rating, or clears it when rating is nil.
func (s *Service) SetRating(ctx context.Context, userID, id string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return ErrInvalidRating
	}
	if err := s.repo.SetRating(ctx, id, userID, rating); err != nil {
		return err
	}
	s.publish(userID, realtime.OpUpdate)
	return nil
}

func (s *Service) publish(userID string, op realtime.Op) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(userID, realtime.Change{Table: table, Op: op})
}
