package chat

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codehivehq/codehive/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// State is a connection's position in its lifecycle. Connecting and
// Authenticating happen in the HTTP handler before the websocket upgrade;
// the Session itself moves Joined → Active → Closed.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateJoined
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoined:
		return "joined"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the state machine permits moving from one
// state to the next. Closed is reachable from anywhere; everything else is
// strictly forward.
func CanTransition(from, to State) bool {
	if to == StateClosed {
		return from != StateClosed
	}
	return to == from+1
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one authenticated websocket connection scoped to exactly one
// project room for its lifetime. Chat events it sends are relayed verbatim
// to every other session in the room; nothing is persisted.
type Session struct {
	ID        string
	ProjectID uint
	UserID    uint

	conn     *websocket.Conn
	hub      Broadcaster
	maxBytes int64

	state     atomic.Int32
	closeOnce sync.Once
}

func NewSession(conn *websocket.Conn, hub Broadcaster, projectID, userID uint, maxMessageBytes int64) *Session {
	if maxMessageBytes <= 0 {
		maxMessageBytes = 8192
	}
	s := &Session{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    userID,
		conn:      conn,
		hub:       hub,
		maxBytes:  maxMessageBytes,
	}
	s.state.Store(int32(StateJoined))
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(to State) {
	for {
		from := State(s.state.Load())
		if !CanTransition(from, to) {
			return
		}
		if s.state.CompareAndSwap(int32(from), int32(to)) {
			return
		}
	}
}

// Run joins the room and pumps messages until the connection drops. It
// blocks until the session is closed.
func (s *Session) Run() {
	recv := s.hub.Join(s.ProjectID, s.ID)
	defer s.Close()

	log := logger.With("chat").With().
		Str("session", s.ID).
		Uint("project", s.ProjectID).
		Uint("user", s.UserID).
		Logger()
	log.Info().Msg("session joined")

	go s.writePump(recv)

	s.setState(StateActive)
	s.readLoop(&log)
}

// Close removes the session from its room and tears down the connection.
// Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		s.hub.Leave(s.ProjectID, s.ID)
		s.conn.Close()
	})
}

// readLoop relays inbound chat events into the room. Payloads are passed
// through unmodified; anything that is not valid JSON is dropped.
func (s *Session) readLoop(log *zerolog.Logger) {
	s.conn.SetReadLimit(s.maxBytes)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("session read error")
			}
			return
		}
		if !json.Valid(payload) {
			log.Debug().Msg("dropping non-JSON chat payload")
			continue
		}
		s.hub.Broadcast(s.ProjectID, s.ID, payload)
	}
}

// writePump drains the delivery channel to the wire and keeps the
// connection alive with pings. It exits when the channel is closed (the
// session left its room) or a write fails.
func (s *Session) writePump(recv <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case payload, ok := <-recv:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
