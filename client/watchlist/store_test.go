package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"watchtrack/models"
)

type fakeRemote struct {
	mu       sync.Mutex
	items    map[string][]models.WatchlistItem
	inserts  []models.WatchlistInsert
	deletes  []string // "id/userID"
	listErr  error
	lists    int
	nextID   int
	watchedC []bool
	ratings  []*int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{items: map[string][]models.WatchlistItem{}}
}

func (f *fakeRemote) ListItems(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.WatchlistItem{}, f.items[userID]...), nil
}

func (f *fakeRemote) InsertItem(ctx context.Context, ins models.WatchlistInsert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, ins)
	f.nextID++
	item := models.WatchlistItem{
		ID:        fmt.Sprintf("item-%d", f.nextID),
		UserID:    ins.UserID,
		TMDBID:    ins.TMDBID,
		MediaType: ins.MediaType,
		Title:     ins.Title,
	}
	// Newest first, like the server's created_at DESC ordering.
	f.items[ins.UserID] = append([]models.WatchlistItem{item}, f.items[ins.UserID]...)
	return nil
}

func (f *fakeRemote) DeleteItem(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id+"/"+userID)
	rows := f.items[userID]
	for i, item := range rows {
		if item.ID == id {
			f.items[userID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRemote) UpdateWatched(ctx context.Context, id, userID string, watched bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchedC = append(f.watchedC, watched)
	for i := range f.items[userID] {
		if f.items[userID][i].ID == id {
			f.items[userID][i].IsWatched = watched
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRemote) UpdateRating(ctx context.Context, id, userID string, rating *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, rating)
	for i := range f.items[userID] {
		if f.items[userID][i].ID == id {
			f.items[userID][i].Rating = rating
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRemote) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

type fakeFeed struct {
	mu        sync.Mutex
	callbacks map[string]func()
	subErr    error
	subs      int
	cancels   int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{callbacks: map[string]func(){}}
}

func (f *fakeFeed) Subscribe(ctx context.Context, userID string, onChange func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.subs++
	f.callbacks[userID] = onChange
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancels++
		delete(f.callbacks, userID)
	}, nil
}

// fire simulates a remote change notification for userID.
func (f *fakeFeed) fire(userID string) bool {
	f.mu.Lock()
	cb := f.callbacks[userID]
	f.mu.Unlock()
	if cb == nil {
		return false
	}
	cb()
	return true
}

func signedIn(t *testing.T, remote Remote, feed ChangeFeed) *Store {
	t.Helper()
	store := NewStore(remote, feed)
	store.OnSessionChange(context.Background(), &models.User{ID: "user-1", Email: "viewer@example.com"})
	return store
}

func TestMutationsRequireSession(t *testing.T) {
	store := NewStore(newFakeRemote(), newFakeFeed())
	ctx := context.Background()

	if err := store.Add(ctx, models.SearchResult{ID: 603, MediaType: models.MediaTypeMovie}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated from add, got %v", err)
	}
	if err := store.Remove(ctx, "item-1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated from remove, got %v", err)
	}
	if err := store.SetWatched(ctx, "item-1", true); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated from set watched, got %v", err)
	}
}

func TestAddIsNotOptimistic(t *testing.T) {
	remote := newFakeRemote()
	feed := newFakeFeed()
	store := signedIn(t, remote, feed)
	ctx := context.Background()

	err := store.Add(ctx, models.SearchResult{ID: 603, Title: "The Matrix", MediaType: models.MediaTypeMovie})
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	// The write went through, but the cache must wait for the subscription.
	if len(remote.inserts) != 1 {
		t.Fatalf("expected one remote insert, got %d", len(remote.inserts))
	}
	if len(store.Items()) != 0 {
		t.Fatalf("cache must not update before the change notification")
	}

	if !feed.fire("user-1") {
		t.Fatalf("expected an active subscription for user-1")
	}

	items := store.Items()
	if len(items) != 1 || items[0].TMDBID != 603 || items[0].MediaType != models.MediaTypeMovie {
		t.Fatalf("expected the added movie after refresh, got %+v", items)
	}
	if !store.IsTracked(603) {
		t.Fatalf("expected IsTracked(603) after refresh")
	}
}

func TestAddFillsUnknownTitle(t *testing.T) {
	remote := newFakeRemote()
	store := signedIn(t, remote, newFakeFeed())

	if err := store.Add(context.Background(), models.SearchResult{ID: 42, MediaType: models.MediaTypeMovie}); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if got := remote.inserts[0].Title; got != "Unknown Title" {
		t.Fatalf("expected Unknown Title fallback, got %q", got)
	}
	if got := remote.inserts[0].UserID; got != "user-1" {
		t.Fatalf("expected insert scoped to session user, got %q", got)
	}
}

func TestPartitionCoversCache(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-1"] = []models.WatchlistItem{
		{ID: "a", TMDBID: 1, IsWatched: true},
		{ID: "b", TMDBID: 2},
		{ID: "c", TMDBID: 3, IsWatched: true},
		{ID: "d", TMDBID: 4},
	}
	store := signedIn(t, remote, newFakeFeed())

	watched := store.WatchedItems()
	unwatched := store.UnwatchedItems()
	if len(watched)+len(unwatched) != len(store.Items()) {
		t.Fatalf("partition does not cover the cache: %d + %d != %d",
			len(watched), len(unwatched), len(store.Items()))
	}
	seen := map[string]bool{}
	for _, item := range watched {
		if !item.IsWatched {
			t.Fatalf("unwatched item in watched partition: %+v", item)
		}
		seen[item.ID] = true
	}
	for _, item := range unwatched {
		if item.IsWatched {
			t.Fatalf("watched item in unwatched partition: %+v", item)
		}
		if seen[item.ID] {
			t.Fatalf("item %s in both partitions", item.ID)
		}
	}
}

func TestFetchFailureDegradesToEmpty(t *testing.T) {
	remote := newFakeRemote()
	remote.listErr = errors.New("boom")
	store := signedIn(t, remote, newFakeFeed())

	if items := store.Items(); len(items) != 0 {
		t.Fatalf("expected empty cache on fetch failure, got %d items", len(items))
	}
	if store.Loading() {
		t.Fatalf("expected loading settled after failed fetch")
	}
}

func TestSubscriptionFailureDoesNotBreakFetch(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-1"] = []models.WatchlistItem{{ID: "a", TMDBID: 603}}
	feed := newFakeFeed()
	feed.subErr = errors.New("realtime unavailable")

	store := signedIn(t, remote, feed)
	if len(store.Items()) != 1 {
		t.Fatalf("fetch must succeed when the subscription fails")
	}
}

func TestSignOutTearsDownSubscriptionAndCache(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-1"] = []models.WatchlistItem{{ID: "a", TMDBID: 603}}
	feed := newFakeFeed()
	store := signedIn(t, remote, feed)

	if len(store.Items()) != 1 {
		t.Fatalf("expected populated cache before sign out")
	}

	store.OnSessionChange(context.Background(), nil)

	if feed.cancels != 1 {
		t.Fatalf("expected the subscription released on sign out")
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected cache cleared on sign out")
	}
	if store.Loading() {
		t.Fatalf("expected not-loading after sign out")
	}

	fetches := remote.listCount()
	if feed.fire("user-1") {
		t.Fatalf("no subscription must survive sign out")
	}
	if remote.listCount() != fetches {
		t.Fatalf("a change for the former user must not trigger a fetch")
	}
}

func TestUserSwitchReplacesSubscription(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-2"] = []models.WatchlistItem{{ID: "z", TMDBID: 1396, MediaType: models.MediaTypeTV}}
	feed := newFakeFeed()
	store := signedIn(t, remote, feed)

	store.OnSessionChange(context.Background(), &models.User{ID: "user-2"})

	if feed.cancels != 1 || feed.subs != 2 {
		t.Fatalf("expected old subscription closed and new one open, got %d cancels / %d subs",
			feed.cancels, feed.subs)
	}
	items := store.Items()
	if len(items) != 1 || items[0].TMDBID != 1396 {
		t.Fatalf("expected the new user's items, got %+v", items)
	}
}

func TestSetRatingValidatesBeforeRemoteCall(t *testing.T) {
	remote := newFakeRemote()
	store := signedIn(t, remote, newFakeFeed())
	ctx := context.Background()

	for _, bad := range []int{0, 6, -3} {
		v := bad
		if err := store.SetRating(ctx, "item-1", &v); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("expected ErrInvalidRating for %d, got %v", bad, err)
		}
	}
	if len(remote.ratings) != 0 {
		t.Fatalf("invalid ratings must not reach the remote store")
	}
}

func TestSetRatingAndClear(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-1"] = []models.WatchlistItem{{ID: "a", TMDBID: 603}}
	feed := newFakeFeed()
	store := signedIn(t, remote, feed)
	ctx := context.Background()

	three := 3
	if err := store.SetRating(ctx, "a", &three); err != nil {
		t.Fatalf("set rating returned error: %v", err)
	}
	feed.fire("user-1")
	items := store.Items()
	if items[0].Rating == nil || *items[0].Rating != 3 {
		t.Fatalf("expected rating 3 after refresh, got %v", items[0].Rating)
	}

	if err := store.SetRating(ctx, "a", nil); err != nil {
		t.Fatalf("clear rating returned error: %v", err)
	}
	feed.fire("user-1")
	if store.Items()[0].Rating != nil {
		t.Fatalf("expected rating cleared after refresh")
	}
}

func TestRemoveIsScopedToOwner(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-1"] = []models.WatchlistItem{{ID: "a", TMDBID: 603}}
	store := signedIn(t, remote, newFakeFeed())

	if err := store.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if len(remote.deletes) != 1 || remote.deletes[0] != "a/user-1" {
		t.Fatalf("expected delete scoped to the owning user, got %v", remote.deletes)
	}
}

func TestIsTrackedIgnoresKind(t *testing.T) {
	remote := newFakeRemote()
	remote.items["user-1"] = []models.WatchlistItem{
		{ID: "a", TMDBID: 603, MediaType: models.MediaTypeMovie},
	}
	store := signedIn(t, remote, newFakeFeed())

	if !store.IsTracked(603) {
		t.Fatalf("expected IsTracked true for cached id")
	}
	if store.IsTracked(604) {
		t.Fatalf("expected IsTracked false for unknown id")
	}
	if !store.IsTrackedKind(603, models.MediaTypeMovie) {
		t.Fatalf("expected IsTrackedKind true for exact pair")
	}
	if store.IsTrackedKind(603, models.MediaTypeTV) {
		t.Fatalf("expected IsTrackedKind false for other kind")
	}
}
