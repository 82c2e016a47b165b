package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/service"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the HTTP level
	},
}

// FeedHub broadcasts newly logged civic actions to connected clients so
// dashboards update live. Send is non-blocking: a slow client gets
// dropped rather than stalling the hub.
type FeedHub struct {
	auth *service.AuthService

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan feedMessage
}

type feedMessage struct {
	Type   string              `json:"type"`
	Action *domain.CivicAction `json:"action,omitempty"`
}

// NewFeedHub creates a FeedHub.
func NewFeedHub(auth *service.AuthService) *FeedHub {
	return &FeedHub{
		auth:    auth,
		clients: make(map[*client]struct{}),
	}
}

// BroadcastAction fans one action out to every connected client.
func (h *FeedHub) BroadcastAction(a *domain.CivicAction) {
	msg := feedMessage{Type: "action_logged", Action: a}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client can't keep up; its writer will close the socket.
		}
	}
}

// Handle upgrades HTTP to WebSocket for the activity feed.
// URL: /ws/feed?token=JWT_TOKEN
func (h *FeedHub) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed: websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan feedMessage, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("feed: client connected (user %s)", claims.Email)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *FeedHub) writeLoop(c *client) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				h.drop(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards inbound messages; the feed is one-way. It exists to
// notice closed connections.
func (h *FeedHub) readLoop(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *FeedHub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}
