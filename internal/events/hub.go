package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumeforge/venued/internal/core/tx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Hub broadcasts published events to websocket subscribers. Subscribers that
// cannot keep up are dropped rather than allowed to stall the broadcast.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*hubConn]struct{}
}

type hubConn struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a hub and wires it to the publisher.
func NewHub(pub *Publisher) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*hubConn]struct{}),
	}
	pub.Subscribe(h.broadcast)
	return h
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: websocket upgrade failed: %v", err)
		return
	}

	c := &hubConn{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) broadcast(ev tx.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		select {
		case c.send <- payload:
		default:
			go h.drop(c)
		}
	}
}

func (h *Hub) drop(c *hubConn) {
	c.once.Do(func() {
		// close(send) runs under the same lock broadcast reads under, so a
		// concurrent broadcast can never send on the closed channel.
		h.mu.Lock()
		delete(h.conns, c)
		close(c.send)
		h.mu.Unlock()
		c.conn.Close()
	})
}

// readLoop consumes and discards client frames, keeping the connection's
// pong handling alive.
func (h *Hub) readLoop(c *hubConn) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *hubConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// ConnCount returns the number of active subscribers.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
