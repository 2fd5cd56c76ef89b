// Package notify fans comment events out to connected websocket clients.
// Delivery is fire-and-forget: a failed or slow client never blocks or
// fails the mutation that produced the event.
package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names sent to clients.
const (
	EventNewComment     = "new_comment"
	EventCommentDeleted = "comment_deleted"
	EventCommentCount   = "comment_count_updated"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// envelope is the wire format for every event.
type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// clientAction is what clients may send: room management only.
type clientAction struct {
	Action      string `json:"action"`
	EquipmentID int64  `json:"equipment_id"`
}

// client is one websocket connection with its joined equipment rooms.
type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	mu    sync.Mutex
	rooms map[int64]bool
}

func (c *client) inRoom(equipmentID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[equipmentID]
}

func (c *client) setRoom(equipmentID int64, joined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if joined {
		c.rooms[equipmentID] = true
	} else {
		delete(c.rooms, equipmentID)
	}
}

// Hub tracks connected clients and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and runs the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[int64]bool),
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// BroadcastNewComment sends a created comment to the equipment's room.
func (h *Hub) BroadcastNewComment(equipmentID int64, payload interface{}) {
	h.broadcast(equipmentID, envelope{Event: EventNewComment, Data: payload})
}

// BroadcastCommentDeleted sends a deletion notice to the equipment's room.
func (h *Hub) BroadcastCommentDeleted(commentID, equipmentID int64) {
	h.broadcast(equipmentID, envelope{Event: EventCommentDeleted, Data: map[string]int64{
		"id":           commentID,
		"equipment_id": equipmentID,
	}})
}

// BroadcastCommentCount sends the equipment's live comment count to every
// client, so list views can update without joining a room.
func (h *Hub) BroadcastCommentCount(equipmentID, count int64) {
	h.broadcast(0, envelope{Event: EventCommentCount, Data: map[string]int64{
		"equipment_id": equipmentID,
		"count":        count,
	}})
}

// broadcast delivers an envelope to the room's clients, or to everyone when
// equipmentID is 0. Clients with a full buffer are skipped.
func (h *Hub) broadcast(equipmentID int64, ev envelope) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notify: failed to marshal %s event: %v", ev.Event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if equipmentID != 0 && !c.inRoom(equipmentID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Println("notify: client buffer full, dropping message")
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump consumes room join/leave actions until the connection drops.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("notify: websocket error: %v", err)
			}
			break
		}

		var action clientAction
		if err := json.Unmarshal(message, &action); err != nil {
			continue
		}
		switch action.Action {
		case "join_equipment":
			c.setRoom(action.EquipmentID, true)
		case "leave_equipment":
			c.setRoom(action.EquipmentID, false)
		}
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
