package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"smartguard/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	// sendBuffer bounds the per-client queue. A reader that falls this far
	// behind starts losing frames instead of stalling everyone else.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly for production
	},
}

// envelope is the wire frame for the single broadcast topic.
type envelope struct {
	Event string          `json:"event"`
	Data  models.Snapshot `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans every evaluated snapshot out to all connected subscribers on
// the "sensor" topic. Delivery is best-effort and at-most-once: a client
// connecting after a publish never sees that frame, and a slow client
// drops frames rather than blocking publication. Each client still sees
// the frames it does receive in publish order.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			h.mutex.Unlock()
			log.Println("WebSocket client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()
			log.Println("WebSocket client disconnected")

		case message := <-h.broadcast:
			h.mutex.RLock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Queue full: drop this frame for this client.
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// Publish queues one snapshot for broadcast. It never blocks the caller;
// if the hub itself is saturated the frame is dropped.
func (h *Hub) Publish(snapshot models.Snapshot) {
	payload, err := json.Marshal(envelope{Event: "sensor", Data: snapshot})
	if err != nil {
		log.Printf("Failed to marshal broadcast frame: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Println("Broadcast queue full, dropping frame")
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the connection and attaches it to the hub. The latest
// snapshot, if any, is queued first so a new subscriber paints immediately
// instead of waiting for the next measurement.
func (h *Hub) HandleWS(latest func() *models.Snapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		if snap := latest(); snap != nil {
			if payload, err := json.Marshal(envelope{Event: "sensor", Data: *snap}); err == nil {
				cl.send <- payload
			}
		}

		h.register <- cl
		go cl.writePump()
		cl.readPump(h)
	}
}

func (c *client) writePump() {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("WebSocket set write deadline error: %v", err)
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		case <-pingTicker.C:
			deadline := time.Now().Add(writeWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Printf("WebSocket ping error: %v", err)
				return
			}
		}
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
	}()

	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}
