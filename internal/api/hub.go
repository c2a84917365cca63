package api

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/JoshuaAmmons/econ-games-sub000/internal/metrics"
)

// Hub maintains active WebSocket connections grouped by session code and
// fans session events out to them. It implements session.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // session code -> clients
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session string
	send    chan []byte
}

// wsMessage is the frame every broadcast is wrapped in.
type wsMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]bool)}
}

func NewClient(h *Hub, conn *websocket.Conn, sessionCode string) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		session: sessionCode,
		send:    make(chan []byte, 64),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	room := h.clients[client.session]
	if room == nil {
		room = make(map[*Client]bool)
		h.clients[client.session] = room
	}
	room[client] = true
	h.mu.Unlock()
	metrics.WebSocketClients.Inc()
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	room := h.clients[client.session]
	if _, ok := room[client]; ok {
		delete(room, client)
		close(client.send)
		if len(room) == 0 {
			delete(h.clients, client.session)
		}
		metrics.WebSocketClients.Dec()
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every client watching the session. Delivery
// is best-effort; a client with a full buffer misses the frame.
func (h *Hub) Broadcast(sessionCode, event string, payload any) {
	data, err := json.Marshal(wsMessage{Event: event, Data: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionCode] {
		select {
		case client.send <- data:
		default:
			// Client buffer full, skip
		}
	}
}

// Stop closes every connection. Called on server shutdown.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for code, room := range h.clients {
		for client := range room {
			close(client.send)
			client.conn.Close()
			metrics.WebSocketClients.Dec()
		}
		delete(h.clients, code)
	}
}

func (c *Client) WritePump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		// Clients only listen; submissions go through the REST API.
	}
}
