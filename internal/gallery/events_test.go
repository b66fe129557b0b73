package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"architect3d/internal/auth"
	"architect3d/internal/events"
	"architect3d/internal/storage"
)

func TestEventVisibility(t *testing.T) {
	cases := []struct {
		name  string
		scope storage.Scope
		evt   events.Event
		want  bool
	}{
		{"user sees own", storage.ForUser("u1"), events.Event{RenderingID: "r1", OwnerID: "u1"}, true},
		{"user blind to others", storage.ForUser("u1"), events.Event{RenderingID: "r2", OwnerID: "u2"}, false},
		{"user blind to guest events", storage.ForUser("u1"), events.Event{RenderingID: "r3"}, false},
		{"guest sees own rendering", storage.ForGuest([]string{"r4"}), events.Event{RenderingID: "r4"}, true},
		{"guest blind to other guests", storage.ForGuest([]string{"r4"}), events.Event{RenderingID: "r5"}, false},
		{"guest blind to owned rows", storage.ForGuest([]string{"r6"}), events.Event{RenderingID: "r6", OwnerID: "u1"}, false},
		{"fresh anonymous sees nothing", storage.ForGuest(nil), events.Event{RenderingID: "r7", OwnerID: "u1"}, false},
	}
	for _, tc := range cases {
		if got := eventVisible(tc.scope, tc.evt); got != tc.want {
			t.Errorf("%s: eventVisible = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStreamEventsFiltersForeignEvents(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	ctx, cancel := context.WithCancel(req.Context())
	session := auth.Session{LoggedIn: true}
	session.User.ID = "u1"
	req = req.WithContext(auth.WithSession(ctx, session))
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.StreamEvents(rec, req)
		close(done)
	}()

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	h.Broker.Publish(events.Event{Kind: events.KindCreated, RenderingID: "mine", OwnerID: "u1"})
	h.Broker.Publish(events.Event{Kind: events.KindCreated, RenderingID: "theirs", OwnerID: "u2"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "mine") {
		t.Errorf("own event missing from stream: %q", body)
	}
	if strings.Contains(body, "theirs") {
		t.Errorf("foreign event leaked into stream: %q", body)
	}
}

func TestBulkFlagPublishesOnlyUpdatedRows(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeGenerator{})
	mine := seedRendering(t, h, "u1", false, false)
	other := seedRendering(t, h, "u2", false, false)

	ch := h.Broker.Subscribe()
	defer h.Broker.Unsubscribe(ch)

	body, _ := json.Marshal(BulkRequest{Action: ActionLike, IDs: []string{mine.ID, other.ID, "missing"}})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/gallery/bulk", bytes.NewReader(body)), "u1")
	rec := httptest.NewRecorder()
	h.Bulk(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var published []events.Event
	for {
		select {
		case evt := <-ch:
			published = append(published, evt)
			continue
		default:
		}
		break
	}
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1 (only the row in scope): %v", len(published), published)
	}
	if published[0].RenderingID != mine.ID || published[0].OwnerID != "u1" {
		t.Errorf("event = %+v", published[0])
	}
}
