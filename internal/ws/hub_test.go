package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/pliu/estate/internal/middleware"
)

// newTestServer serves the websocket endpoint with the user id taken from
// the X-Test-User header instead of a session cookie.
func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	h := Handler(hub, func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		switch r.Header.Get("X-Test-User") {
		case "1":
			id = 1
		case "2":
			id = 2
		}
		h(w, r.WithContext(middleware.WithUserID(r.Context(), id)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	header.Set("X-Test-User", user)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// A pong proves the client is registered with the hub.
	if err := conn.WriteJSON(Event{Type: EventPing}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != EventPong {
		t.Fatalf("Expected pong, got %q", ev.Type)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func TestHubDeliversToTargetUserOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	srv := newTestServer(t, hub)
	alice := dial(t, srv, "1")
	bob := dial(t, srv, "2")

	hub.Notify([]int{2}, Event{Type: EventMessage, Data: map[string]string{"text": "hi"}})

	ev := readEvent(t, bob)
	if ev.Type != EventMessage {
		t.Errorf("Expected message event, got %q", ev.Type)
	}

	// Alice should see nothing but her own pong.
	_ = alice.WriteJSON(Event{Type: EventPing})
	if ev := readEvent(t, alice); ev.Type != EventPong {
		t.Errorf("Expected alice to receive only pong, got %q", ev.Type)
	}
}

func TestHandlerRejectsAnonymous(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected dial to fail without a user")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", resp)
	}
}

func TestNotifyNilAndStoppedHub(t *testing.T) {
	var nilHub *Hub
	nilHub.Notify([]int{1}, Event{Type: EventChat})

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Notify([]int{1}, Event{Type: EventChat})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a stopped hub")
	}
}
