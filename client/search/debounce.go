// Package search coalesces rapid query keystrokes into at most one metadata
// search per quiet period, and sequences responses so a slow early response
// can never overwrite the results of a later request.
package search

import (
	"context"
	"sync"
	"time"

	"watchtrack/models"
)

// DefaultDelay is the quiet period before a pending query fires.
const DefaultDelay = 300 * time.Millisecond

// SearchFunc runs one metadata search.
type SearchFunc func(ctx context.Context, query string) (models.SearchResponse, error)

// Debouncer schedules searches for a stream of keystrokes. A new keystroke
// within the quiet window cancels the pending timer and reschedules; it does
// not cancel an in-flight request, but responses superseded by a newer
// request are dropped on arrival.
type Debouncer struct {
	search    SearchFunc
	delay     time.Duration
	onResults func(models.SearchResponse)
	onError   func(error)

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64 // latest issued request
	closed bool
}

// NewDebouncer wires the search function to its result and error sinks.
// A zero delay selects DefaultDelay.
func NewDebouncer(search SearchFunc, delay time.Duration, onResults func(models.SearchResponse), onError func(error)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		search:    search,
		delay:     delay,
		onResults: onResults,
		onError:   onError,
	}
}

// Query registers a keystroke. The search fires after the quiet period
// unless another keystroke reschedules it first.
func (d *Debouncer) Query(ctx context.Context, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(ctx, query)
	})
}

// Flush fires any pending query immediately. Useful when the user submits
// explicitly instead of waiting out the quiet period.
func (d *Debouncer) Flush(ctx context.Context, query string) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	closed := d.closed
	d.mu.Unlock()
	if !closed {
		d.fire(ctx, query)
	}
}

// Close cancels any pending timer. In-flight responses are dropped.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// Park the sequence so any in-flight response compares stale.
	d.seq++
}

func (d *Debouncer) fire(ctx context.Context, query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	resp, err := d.search(ctx, query)

	d.mu.Lock()
	stale := seq != d.seq || d.closed
	d.mu.Unlock()
	if stale {
		return
	}

	if err != nil {
		if d.onError != nil {
			d.onError(err)
		}
		return
	}
	if d.onResults != nil {
		d.onResults(resp)
	}
}
