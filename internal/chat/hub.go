package chat

import (
	"sync"
)

// Broadcaster is the room-membership and fan-out primitive the session layer
// runs on. The in-process Hub below is the only implementation today; a
// multi-instance deployment swaps in a distributed pub/sub behind the same
// interface without touching session logic.
type Broadcaster interface {
	// Join adds a session to the project's room and returns its delivery
	// channel. The room is created on first join.
	Join(projectID uint, sessionID string) <-chan []byte
	// Leave removes the session and closes its delivery channel. Leaving a
	// room you are not in is a no-op.
	Leave(projectID uint, sessionID string)
	// Broadcast relays the payload to every session in the room except the
	// sender. Delivery is best-effort, at-most-once: slow consumers whose
	// buffer is full are skipped.
	Broadcast(projectID uint, senderSessionID string, payload []byte)
}

// Hub is the process-local Broadcaster: rooms keyed by project ID, one
// buffered channel per connected session. Rooms hold no durable state and
// are deleted when the last session leaves.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[uint]map[string]chan []byte
	sendBuffer int
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		rooms:      make(map[uint]map[string]chan []byte),
		sendBuffer: sendBuffer,
	}
}

func (h *Hub) Join(projectID uint, sessionID string) <-chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[string]chan []byte)
		h.rooms[projectID] = room
	}

	ch := make(chan []byte, h.sendBuffer)
	room[sessionID] = ch
	return ch
}

func (h *Hub) Leave(projectID uint, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[projectID]
	if !ok {
		return
	}
	ch, ok := room[sessionID]
	if !ok {
		return
	}
	close(ch)
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, projectID)
	}
}

func (h *Hub) Broadcast(projectID uint, senderSessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sessionID, ch := range h.rooms[projectID] {
		if sessionID == senderSessionID {
			continue
		}
		select {
		case ch <- payload:
		default:
			// Slow consumer, drop the event.
		}
	}
}

// RoomSize returns the number of live sessions in the project's room.
func (h *Hub) RoomSize(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}
