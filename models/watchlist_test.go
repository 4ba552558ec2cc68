package models

import "testing"

func TestNewWatchlistInsertTitleFallbacks(t *testing.T) {
	movie := SearchResult{ID: 603, Title: "The Matrix", MediaType: MediaTypeMovie, ReleaseDate: "1999-03-31"}
	ins := NewWatchlistInsert("user-1", movie)
	if ins.Title != "The Matrix" {
		t.Fatalf("expected movie title, got %q", ins.Title)
	}
	if ins.ReleaseDate != "1999-03-31" {
		t.Fatalf("expected release date, got %q", ins.ReleaseDate)
	}

	show := SearchResult{ID: 1396, Name: "Breaking Bad", MediaType: MediaTypeTV, FirstAirDate: "2008-01-20"}
	ins = NewWatchlistInsert("user-1", show)
	if ins.Title != "Breaking Bad" {
		t.Fatalf("expected show name as title, got %q", ins.Title)
	}
	if ins.ReleaseDate != "2008-01-20" {
		t.Fatalf("expected first air date as release date, got %q", ins.ReleaseDate)
	}

	blank := SearchResult{ID: 42, MediaType: MediaTypeMovie}
	ins = NewWatchlistInsert("user-1", blank)
	if ins.Title != "Unknown Title" {
		t.Fatalf("expected Unknown Title fallback, got %q", ins.Title)
	}
	if ins.ReleaseDate != "" {
		t.Fatalf("expected absent release date, got %q", ins.ReleaseDate)
	}
}

func TestWatchlistItemKey(t *testing.T) {
	movie := WatchlistItem{TMDBID: 603, MediaType: MediaTypeMovie}
	show := WatchlistItem{TMDBID: 603, MediaType: MediaTypeTV}
	if movie.Key() == show.Key() {
		t.Fatalf("expected distinct keys for same id across kinds")
	}
	if movie.Key() != "movie:603" {
		t.Fatalf("unexpected key %q", movie.Key())
	}
}

func TestValidMediaType(t *testing.T) {
	if !ValidMediaType(MediaTypeMovie) || !ValidMediaType(MediaTypeTV) {
		t.Fatalf("expected movie and tv to be valid")
	}
	if ValidMediaType("person") {
		t.Fatalf("person must not be a valid media type")
	}
}
