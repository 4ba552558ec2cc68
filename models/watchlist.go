package models

import (
	"strconv"
	"time"
)

const (
	// MediaTypeMovie tags items backed by a TMDB movie record.
	MediaTypeMovie = "movie"
	// MediaTypeTV tags items backed by a TMDB TV show record.
	MediaTypeTV = "tv"
)

// ValidMediaType reports whether t is one of the supported media kinds.
func ValidMediaType(t string) bool {
	return t == MediaTypeMovie || t == MediaTypeTV
}

// WatchlistItem is one tracked title owned by a single user. The descriptive
// fields are a snapshot taken at add-time and are never refreshed from TMDB.
type WatchlistItem struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TMDBID       int64     `json:"tmdb_id"`
	MediaType    string    `json:"media_type"` // movie | tv
	Title        string    `json:"title"`
	Overview     string    `json:"overview,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BackdropPath string    `json:"backdrop_path,omitempty"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	GenreIDs     []int64   `json:"genre_ids,omitempty"`
	VoteAverage  float64   `json:"vote_average,omitempty"`
	IsWatched    bool      `json:"is_watched"`
	Rating       *int      `json:"rating,omitempty"` // 1..5, nil means unrated
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WatchlistInsert captures the data required to create a watchlist item.
type WatchlistInsert struct {
	UserID       string  `json:"user_id"`
	TMDBID       int64   `json:"tmdb_id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	GenreIDs     []int64 `json:"genre_ids,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
}

// Key returns a stable identifier combining media type and TMDB id. Two items
// owned by the same user may share a TMDB id only when their media types differ.
func (w WatchlistItem) Key() string {
	return w.MediaType + ":" + strconv.FormatInt(w.TMDBID, 10)
}

// Key returns the same stable identifier as WatchlistItem.Key.
func (w WatchlistInsert) Key() string {
	return w.MediaType + ":" + strconv.FormatInt(w.TMDBID, 10)
}

// NewWatchlistInsert snapshots a search result into an insert for userID.
// Title falls back through the movie title, the show name, and finally
// "Unknown Title"; the date prefers the release date over the first air date.
func NewWatchlistInsert(userID string, r SearchResult) WatchlistInsert {
	title := r.DisplayTitle()
	if title == "" {
		title = "Unknown Title"
	}
	return WatchlistInsert{
		UserID:       userID,
		TMDBID:       r.ID,
		MediaType:    r.MediaType,
		Title:        title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		ReleaseDate:  r.PrimaryDate(),
		GenreIDs:     r.GenreIDs,
		VoteAverage:  r.VoteAverage,
	}
}
