// Package ws pushes live order events to back-office websocket clients.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/logger"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// OrderFeed fans order events out to connected websocket clients. A client
// that falls sendBuffer messages behind is disconnected.
type OrderFeed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewOrderFeed creates a feed accepting upgrades from allowedOrigins. An
// empty list accepts any origin.
func NewOrderFeed(allowedOrigins []string) *OrderFeed {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &OrderFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish broadcasts evt without blocking on slow clients.
func (f *OrderFeed) Publish(evt domain.OrderEvent) {
	msg, err := json.Marshal(evt)
	if err != nil {
		slog.Error("failed to encode order event", "type", evt.Type, "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
			f.drop(c)
		}
	}
}

// Clients returns the number of connected listeners.
func (f *OrderFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// drop must be called with mu held.
func (f *OrderFeed) drop(c *client) {
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
}

// Serve upgrades the request and streams events until the client leaves.
// Authentication is the caller's job.
func (f *OrderFeed) Serve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()
	log.Info("order feed client connected", "remote", r.RemoteAddr)

	go f.readLoop(c)
	f.writeLoop(c)
	log.Info("order feed client disconnected", "remote", r.RemoteAddr)
}

// readLoop only handles control frames; it unregisters the client once the
// connection fails or closes.
func (f *OrderFeed) readLoop(c *client) {
	defer func() {
		f.mu.Lock()
		f.drop(c)
		f.mu.Unlock()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *OrderFeed) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
