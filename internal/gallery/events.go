package gallery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"architect3d/internal/auth"
	"architect3d/internal/events"
	"architect3d/internal/storage"
)

// StreamEvents handles GET /api/events with server-sent events. The stream
// carries the caller's own gallery changes until the client disconnects;
// events outside the subscriber's scope are never written.
func (h Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if h.Broker == nil {
		http.Error(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}

	session, _ := auth.SessionFromContext(r.Context())
	scope := session.Scope()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.Broker.Subscribe()
	defer h.Broker.Unsubscribe(ch)

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt := <-ch:
			if !eventVisible(scope, evt) {
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, data)
			flusher.Flush()
		}
	}
}

// eventVisible applies the same boundary as storage.Scope.Admits: users see
// their own events, guests see only events for ownerless renderings in
// their cookie scope.
func eventVisible(scope storage.Scope, evt events.Event) bool {
	if !scope.IsGuest() {
		return evt.OwnerID == scope.OwnerID
	}
	if evt.OwnerID != "" {
		return false
	}
	for _, id := range scope.GuestIDs {
		if id == evt.RenderingID {
			return true
		}
	}
	return false
}
