package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"watchtrack/models"
)

type searchRecorder struct {
	mu      sync.Mutex
	queries []string
	results chan models.SearchResponse
	errs    chan error
}

func newSearchRecorder() *searchRecorder {
	return &searchRecorder{
		results: make(chan models.SearchResponse, 16),
		errs:    make(chan error, 16),
	}
}

func (r *searchRecorder) search(ctx context.Context, query string) (models.SearchResponse, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return models.SearchResponse{
		Results: []models.SearchResult{{ID: 603, Title: query, MediaType: models.MediaTypeMovie}},
	}, nil
}

func (r *searchRecorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.queries...)
}

func (r *searchRecorder) waitResult(t *testing.T) models.SearchResponse {
	t.Helper()
	select {
	case resp := <-r.results:
		return resp
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for search results")
		return models.SearchResponse{}
	}
}

func (r *searchRecorder) expectQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case resp := <-r.results:
		t.Fatalf("unexpected results delivered: %+v", resp)
	case err := <-r.errs:
		t.Fatalf("unexpected error delivered: %v", err)
	case <-time.After(d):
	}
}

func newTestDebouncer(rec *searchRecorder, delay time.Duration) *Debouncer {
	return NewDebouncer(rec.search, delay,
		func(resp models.SearchResponse) { rec.results <- resp },
		func(err error) { rec.errs <- err },
	)
}

func TestRapidQueriesCoalesce(t *testing.T) {
	rec := newSearchRecorder()
	d := newTestDebouncer(rec, 30*time.Millisecond)
	defer d.Close()
	ctx := context.Background()

	for _, q := range []string{"m", "ma", "mat", "matr", "matrix"} {
		d.Query(ctx, q)
		time.Sleep(5 * time.Millisecond)
	}

	resp := rec.waitResult(t)
	if len(resp.Results) != 1 || resp.Results[0].Title != "matrix" {
		t.Fatalf("expected results for the final keystroke, got %+v", resp.Results)
	}
	if calls := rec.calls(); len(calls) != 1 || calls[0] != "matrix" {
		t.Fatalf("expected exactly one search for the final query, got %v", calls)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	block := make(chan struct{})
	var mu sync.Mutex
	var delivered []string

	slow := func(ctx context.Context, query string) (models.SearchResponse, error) {
		if query == "slow" {
			<-block
		}
		return models.SearchResponse{Results: []models.SearchResult{{Title: query}}}, nil
	}
	done := make(chan struct{}, 2)
	d := NewDebouncer(slow, 10*time.Millisecond,
		func(resp models.SearchResponse) {
			mu.Lock()
			delivered = append(delivered, resp.Results[0].Title)
			mu.Unlock()
			done <- struct{}{}
		}, nil)
	defer d.Close()
	ctx := context.Background()

	// First request fires and stalls inside the search function. Flush runs
	// the search on the calling goroutine, so detach it.
	started := make(chan struct{})
	go func() {
		close(started)
		d.Flush(ctx, "slow")
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	// Second request fires and completes while the first is still in flight.
	d.Flush(ctx, "fast")
	<-done

	// Let the first response arrive; it must be discarded as stale.
	close(block)
	select {
	case <-done:
		t.Fatalf("stale response must not be delivered")
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 || delivered[0] != "fast" {
		t.Fatalf("expected only the later response, got %v", delivered)
	}
}

func TestFlushFiresImmediately(t *testing.T) {
	rec := newSearchRecorder()
	d := newTestDebouncer(rec, time.Hour)
	defer d.Close()
	ctx := context.Background()

	d.Query(ctx, "pending")
	d.Flush(ctx, "submitted")

	resp := rec.waitResult(t)
	if resp.Results[0].Title != "submitted" {
		t.Fatalf("expected flushed query results, got %+v", resp.Results)
	}
	// The hour-long pending timer was cancelled by the flush.
	if calls := rec.calls(); len(calls) != 1 {
		t.Fatalf("expected one search, got %v", calls)
	}
}

func TestSearchErrorsReachErrorSink(t *testing.T) {
	boom := errors.New("metadata service down")
	failing := func(ctx context.Context, query string) (models.SearchResponse, error) {
		return models.SearchResponse{}, boom
	}
	errs := make(chan error, 1)
	d := NewDebouncer(failing, 10*time.Millisecond, nil, func(err error) { errs <- err })
	defer d.Close()

	d.Flush(context.Background(), "matrix")

	select {
	case err := <-errs:
		if !errors.Is(err, boom) {
			t.Fatalf("expected the search error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the error sink")
	}
}

func TestCloseDropsPendingAndInFlight(t *testing.T) {
	rec := newSearchRecorder()
	d := newTestDebouncer(rec, 20*time.Millisecond)
	ctx := context.Background()

	d.Query(ctx, "never")
	d.Close()

	rec.expectQuiet(t, 100*time.Millisecond)
	if calls := rec.calls(); len(calls) != 0 {
		t.Fatalf("pending query must not fire after close, got %v", calls)
	}

	// Query after close is a no-op.
	d.Query(ctx, "late")
	rec.expectQuiet(t, 100*time.Millisecond)
}
