package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/agent-pulse/backend/internal/activity"
	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	send chan []byte

	// done is closed exactly once on removal. The send channel itself is
	// never closed: concurrent broadcasters may be mid-send on it, and a
	// send on a closed channel panics even under select.
	done     chan struct{}
	stopOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) close() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// Hub fans session-activity and notification events out to connected UI
// clients. Emission is fire-and-forget: slow clients are disconnected rather
// than allowed to stall the dispatchers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	// Snapshot supplies the current phase map for the hello message sent
	// to newly connected clients. Nil disables the snapshot.
	Snapshot func() map[string]activity.Phase
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
	}
}

// EmitPhase implements activity.Emitter.
func (h *Hub) EmitPhase(sessionID string, phase activity.Phase) {
	h.broadcast(Message{
		Type: MsgActivity,
		Payload: ActivityPayload{
			SessionID: sessionID,
			Phase:     phase,
		},
	})
}

// Notify implements notify.Notifier, mirroring desktop notifications to UI
// clients. The sound name is a desktop concern and not forwarded.
func (h *Hub) Notify(title, body, sound string) {
	h.broadcast(Message{
		Type: MsgNotification,
		Payload: NotificationPayload{
			Title: title,
			Body:  body,
		},
	})
}

func (h *Hub) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	if h.Snapshot != nil {
		msg := Message{
			Type: MsgSnapshot,
			Payload: SnapshotPayload{
				Sessions: h.Snapshot(),
			},
		}
		data, _ := json.Marshal(msg)
		select {
		case c.send <- data:
		case <-c.done:
		default:
			// Client too slow, drop the snapshot
		}
	}

	return c
}

func (h *Hub) RemoveClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		case <-c.done:
			// Already removed by a concurrent broadcaster or disconnect.
		default:
			// Client can't keep up, disconnect it
			log.Printf("ws: client too slow, disconnecting")
			h.RemoveClient(c)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
