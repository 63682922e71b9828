package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// sessionServer runs real Sessions against an in-process Hub: every
// websocket handshake on the test server becomes a session in room 1.
type sessionServer struct {
	hub      *Hub
	srv      *httptest.Server
	sessions chan *Session
}

func newSessionServer(t *testing.T, maxBytes int64) *sessionServer {
	t.Helper()

	ss := &sessionServer{
		hub:      NewHub(4),
		sessions: make(chan *Session, 8),
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	ss.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s := NewSession(conn, ss.hub, 1, 7, maxBytes)
		ss.sessions <- s
		s.Run()
	}))
	t.Cleanup(ss.srv.Close)
	return ss
}

func (ss *sessionServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ss.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readWithin(t *testing.T, conn *websocket.Conn, d time.Duration) ([]byte, error) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(d))
	_, payload, err := conn.ReadMessage()
	return payload, err
}

func TestSessionRelaysToRoom(t *testing.T) {
	ss := newSessionServer(t, 1024)

	a := ss.dial(t)
	b := ss.dial(t)
	waitFor(t, "both sessions joined", func() bool { return ss.hub.RoomSize(1) == 2 })

	event := []byte(`{"text":"hello"}`)
	if err := a.WriteMessage(websocket.TextMessage, event); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := readWithin(t, b, 2*time.Second)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(got) != string(event) {
		t.Errorf("peer received %q, expected %q", got, event)
	}

	// The sender must not get its own event back.
	if _, err := readWithin(t, a, 200*time.Millisecond); err == nil {
		t.Error("sender received an echo of its own event")
	}
}

func TestSessionDropsNonJSON(t *testing.T) {
	ss := newSessionServer(t, 1024)

	a := ss.dial(t)
	b := ss.dial(t)
	waitFor(t, "both sessions joined", func() bool { return ss.hub.RoomSize(1) == 2 })

	if err := a.WriteMessage(websocket.TextMessage, []byte("not json at all")); err != nil {
		t.Fatalf("write: %v", err)
	}
	event := []byte(`{"seq":2}`)
	if err := a.WriteMessage(websocket.TextMessage, event); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The malformed payload is dropped, so the first delivery is the
	// well-formed one that followed it.
	got, err := readWithin(t, b, 2*time.Second)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(got) != string(event) {
		t.Errorf("peer received %q, expected %q", got, event)
	}
}

func TestSessionEnforcesReadLimit(t *testing.T) {
	ss := newSessionServer(t, 32)

	a := ss.dial(t)
	b := ss.dial(t)
	waitFor(t, "both sessions joined", func() bool { return ss.hub.RoomSize(1) == 2 })

	oversize := []byte(`{"data":"` + strings.Repeat("x", 64) + `"}`)
	if err := a.WriteMessage(websocket.TextMessage, oversize); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The offending session is torn down and leaves the room.
	waitFor(t, "oversize sender to be evicted", func() bool { return ss.hub.RoomSize(1) == 1 })
	if _, err := readWithin(t, a, 2*time.Second); err == nil {
		t.Error("expected the oversize sender's connection to be closed")
	}

	// The rest of the room is unaffected.
	if err := b.WriteMessage(websocket.TextMessage, []byte(`{"ok":true}`)); err != nil {
		t.Errorf("surviving session write failed: %v", err)
	}
}

func TestSessionTeardownOnClientDisconnect(t *testing.T) {
	ss := newSessionServer(t, 1024)

	a := ss.dial(t)
	s := <-ss.sessions
	waitFor(t, "session active", func() bool { return s.State() == StateActive })

	a.Close()

	waitFor(t, "room emptied", func() bool { return ss.hub.RoomSize(1) == 0 })
	waitFor(t, "session closed", func() bool { return s.State() == StateClosed })

	// Close is idempotent: closing an already-closed session is a no-op.
	s.Close()
	s.Close()
	if s.State() != StateClosed {
		t.Errorf("state = %s after repeated Close, expected closed", s.State())
	}
}

func TestSessionServerSideClose(t *testing.T) {
	ss := newSessionServer(t, 1024)

	a := ss.dial(t)
	s := <-ss.sessions
	waitFor(t, "session active", func() bool { return s.State() == StateActive })

	// Closing server-side drains the room and ends the client's read with a
	// close frame from the write pump.
	s.Close()

	if _, err := readWithin(t, a, 2*time.Second); err == nil {
		t.Error("expected the client read to fail after server-side close")
	}
	if ss.hub.RoomSize(1) != 0 {
		t.Errorf("room size = %d after close, expected 0", ss.hub.RoomSize(1))
	}
}
