package spectate

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/squad-tactics/internal/tactics"
)

type fakeBus struct {
	events     chan tactics.Event
	subscribed chan string
}

func newFakeBus() *fakeBus {
	return &fakeBus{events: make(chan tactics.Event, 8), subscribed: make(chan string, 1)}
}

func (f *fakeBus) Subscribe(ctx context.Context, sessionID string) (<-chan tactics.Event, error) {
	f.subscribed <- sessionID
	return f.events, nil
}

func dialFeed(t *testing.T, bus *fakeBus, id string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(New(bus).Handler())
	t.Cleanup(srv.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/games/" + id + "/events"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	select {
	case got := <-bus.subscribed:
		if got != id {
			t.Fatalf("subscribed to %q, want %q", got, id)
		}
	case <-ctx.Done():
		t.Fatalf("server never subscribed")
	}
	return conn
}

func TestFeedStreamsUntilGameOver(t *testing.T) {
	bus := newFakeBus()
	conn := dialFeed(t, bus, "g1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	moved := tactics.Event{Type: tactics.EventUnitMoved, SessionID: "g1", Actor: "alice",
		Moved: &tactics.MovedPayload{Unit: 0, From: tactics.Position{}, To: tactics.Position{X: 1, Y: 1}}}
	finished := tactics.Event{Type: tactics.EventGameFinished, SessionID: "g1", Actor: "bob",
		Finished: &tactics.FinishedPayload{Winner: "alice", Reason: tactics.ReasonForfeit}}
	bus.events <- moved
	bus.events <- finished

	for _, want := range []tactics.Event{moved, finished} {
		var got tactics.Event
		if err := wsjson.Read(ctx, conn, &got); err != nil {
			t.Fatalf("read: %v", err)
		}
		if got.Type != want.Type || got.Actor != want.Actor {
			t.Fatalf("got %+v want %+v", got, want)
		}
	}
	var extra tactics.Event
	err := wsjson.Read(ctx, conn, &extra)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure after game over, got %v", err)
	}
}

func TestFeedRejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(New(newFakeBus()).Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL + "/games/g1/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		t.Fatalf("plain GET should be refused, got %d", resp.StatusCode)
	}
	resp, err = srv.Client().Post(srv.URL+"/games/g1/events", "text/plain", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 405 {
		t.Fatalf("POST should be 405, got %d", resp.StatusCode)
	}
}
