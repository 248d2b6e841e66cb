// Package realtime pushes JSON events to a user's connected websocket
// clients: reminders when they fire and settings after they change.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fitdiary/internal/reminder"
)

const (
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

// A peer that sends neither a frame nor a pong within pongWait is dropped.
// pingInterval must stay below pongWait.
var (
	pingInterval = 25 * time.Second
	pongWait     = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection. Only its write pump writes to conn.
type Client struct {
	ID     string
	UserID int

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Done is closed when the connection has gone away.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[int]map[*Client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger, clients: make(map[int]map[*Client]struct{})}
}

// Serve upgrades the request and registers the connection for userID. The
// returned client is live until Done is closed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	h.register(c)
	go h.writePump(c)
	go h.readPump(c)
	return c, nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("ws client connected", zap.Int("user_id", c.UserID), zap.String("client_id", c.ID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	c.close()
	h.logger.Debug("ws client disconnected", zap.Int("user_id", c.UserID), zap.String("client_id", c.ID))
}

// readPump drains client frames; a read error or an expired read deadline
// means the peer is gone.
func (h *Hub) readPump(c *Client) {
	defer h.unregister(c)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		_ = extend()
	}
}

func (h *Hub) writePump(c *Client) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-t.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send queues payload for one client. A full queue drops the message.
func (h *Hub) Send(c *Client, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("ws marshal failed", zap.Error(err))
		return
	}
	h.enqueue(c, msg)
}

func (h *Hub) enqueue(c *Client, msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		h.logger.Warn("ws send queue full, dropping message", zap.Int("user_id", c.UserID), zap.String("client_id", c.ID))
	}
}

// Broadcast sends payload to every connection of userID.
func (h *Hub) Broadcast(userID int, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("ws marshal failed", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		h.enqueue(c, msg)
	}
}

// Connected reports how many live connections userID has.
func (h *Hub) Connected(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify makes the hub a reminder.Notifier.
func (h *Hub) Notify(userID int, r reminder.Reminder) {
	h.Broadcast(userID, r)
}
