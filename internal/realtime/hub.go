// Package realtime fans out "something changed" notifications to per-user
// subscribers. Events carry the table and operation but no row data; the
// receiver is expected to refetch.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

// Op is the kind of change that occurred.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is one change-feed event.
type Change struct {
	Table string `json:"table"`
	Op    Op     `json:"op"`
}

// Each subscriber sees at most this many events per second; bursts beyond it
// coalesce into a single pending event, which is lossless for refetch-style
// consumers.
const eventsPerSecond = 10

// Hub routes changes to subscribers keyed by user id.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	wg     conc.WaitGroup
	log    *slog.Logger
}

type subscriber struct {
	out  chan Change
	kick chan Change // capacity 1; a full kick means an event is already pending
	done chan struct{}
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
		log:  log,
	}
}

// Subscribe opens a change stream for userID. The returned cancel function
// releases the stream and closes the channel; calling it twice is safe.
// A slow reader never blocks publishers.
func (h *Hub) Subscribe(userID string) (<-chan Change, func()) {
	sub := &subscriber{
		out:  make(chan Change),
		kick: make(chan Change, 1),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.out)
		return sub.out, func() {}
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	limiter := rate.NewLimiter(rate.Limit(eventsPerSecond), 1)
	ctx, cancelWait := context.WithCancel(context.Background())

	h.wg.Go(func() {
		defer cancelWait()
		defer close(sub.out)
		for {
			select {
			case <-sub.done:
				return
			case change := <-sub.kick:
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				select {
				case sub.out <- change:
				case <-sub.done:
					return
				}
			}
		}
	})

	h.log.Debug("realtime.subscribed", "user_id", userID)

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
			cancelWait()
			close(sub.done)
			h.log.Debug("realtime.unsubscribed", "user_id", userID)
		})
	}
	return sub.out, cancel
}

// Publish notifies every subscriber of userID. Never blocks: when a
// subscriber already has an event pending, the new one coalesces into it.
func (h *Hub) Publish(userID string, change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for sub := range h.subs[userID] {
		select {
		case sub.kick <- change:
		default:
		}
	}
}

// Close tears down all subscriptions and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*subscriber
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.subs = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range all {
		sub.once.Do(func() { close(sub.done) })
	}
	h.wg.Wait()
}
