package websocket

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a websocket connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	userRole  string
	closeHook func()
}

// NewClient wraps an upgraded connection for registration with the hub
func NewClient(hub *Hub, conn *websocket.Conn, userID, userRole string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   userID,
		userRole: userRole,
	}
}

// SetCloseHook registers a callback invoked once when the hub drops the
// client. Must be set before Start.
func (c *Client) SetCloseHook(hook func()) {
	c.closeHook = hook
}

func (c *Client) notifyClosed() {
	if c.closeHook != nil {
		c.closeHook()
	}
}

// Start registers the client and launches its read/write pumps
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// Hub maintains the set of active clients and broadcasts messages.
// Doctors are tracked separately so glucose alerts reach them directly.
type Hub struct {
	clients       map[*Client]bool
	broadcast     chan []byte
	register      chan *Client
	unregister    chan *Client
	mu            sync.RWMutex
	doctorClients map[string]*Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		doctorClients: make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.userRole == "DOCTOR" {
				h.doctorClients[client.userID] = client
				log.Printf("Doctor connected: %s (total: %d)", client.userID, len(h.doctorClients))
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if client.userRole == "DOCTOR" {
					delete(h.doctorClients, client.userID)
					log.Printf("Doctor disconnected: %s (total: %d)", client.userID, len(h.doctorClients))
				}
				close(client.send)
				client.notifyClosed()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					if client.userRole == "DOCTOR" {
						delete(h.doctorClients, client.userID)
					}
					client.notifyClosed()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastToDoctors sends a message only to connected DOCTOR users
func (h *Hub) BroadcastToDoctors(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for userID, client := range h.doctorClients {
		select {
		case client.send <- message:
			sent++
		default:
			log.Printf("Failed to send to doctor %s, removing", userID)
			close(client.send)
			delete(h.clients, client)
			delete(h.doctorClients, userID)
			client.notifyClosed()
		}
	}

	if sent > 0 {
		log.Printf("Broadcasted alert to %d doctors", sent)
	} else {
		log.Printf("No connected doctors to receive alert")
	}
}

// SendToUser sends a message to a single connected doctor, if present
func (h *Hub) SendToUser(userID string, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.doctorClients[userID]
	if !ok {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// GetConnectedDoctorCount returns number of connected DOCTOR users
func (h *Hub) GetConnectedDoctorCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.doctorClients)
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// Upgrade upgrades HTTP connection to WebSocket
func Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, responseHeader)
}
