package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"watchtrack/internal/realtime"
)

type changeSubscriber interface {
	Subscribe(userID string) (<-chan realtime.Change, func())
}

var _ changeSubscriber = (*realtime.Hub)(nil)

// EventsHandler streams the per-user change feed as server-sent events.
type EventsHandler struct {
	Hub changeSubscriber
}

func NewEventsHandler(hub changeSubscriber) *EventsHandler {
	return &EventsHandler{Hub: hub}
}

// Stream holds the connection open and writes one "change" event per
// notification until the client disconnects or the hub shuts down.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	changes, cancel := h.Hub.Subscribe(user.ID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Tell the client the stream is live before the first change arrives.
	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	log.Printf("[events-handler] stream opened for user %s", user.ID)
	defer log.Printf("[events-handler] stream closed for user %s", user.ID)

	for {
		select {
		case <-r.Context().Done():
			return
		case change, open := <-changes:
			if !open {
				return
			}
			payload, err := json.Marshal(change)
			if err != nil {
				log.Printf("[events-handler] encode change: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
