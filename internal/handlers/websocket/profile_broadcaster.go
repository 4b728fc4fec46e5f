package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Afonso017/fraud-detector/internal/app/dto"
	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
)

const clientSendBuffer = 64

// ProfileBroadcaster pushes profile updates to connected websocket clients
// as the write path applies transaction events. Used by ops dashboards to
// watch behavioral statistics move in real time. Each client has a bounded
// send queue drained by its own writer goroutine; a slow client misses
// updates instead of stalling the caller.
type ProfileBroadcaster struct {
	clients  map[*client]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	log      *slog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewProfileBroadcaster(log *slog.Logger) *ProfileBroadcaster {
	return &ProfileBroadcaster{
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:      log,
	}
}

var _ useCases.ProfileBroadcaster = (*ProfileBroadcaster)(nil)

// BroadcastProfile queues the profile for delivery to every connected
// client. Never blocks: a client whose queue is full drops this update.
func (b *ProfileBroadcaster) BroadcastProfile(profile *model.UserProfile) {
	msg, err := json.Marshal(dto.FromProfile(profile))
	if err != nil {
		b.log.Error("failed to marshal profile", "err", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.log.Debug("dropping profile update for slow websocket client")
		}
	}
}

// Handler returns an http.HandlerFunc to accept websocket connections.
func (b *ProfileBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.Error("websocket upgrade error", "err", err)
			return
		}

		c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
		b.mu.Lock()
		b.clients[c] = struct{}{}
		b.mu.Unlock()

		go b.writeLoop(c)
		go b.readLoop(c)
	}
}

// writeLoop drains the client's send queue onto the connection.
func (b *ProfileBroadcaster) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.log.Debug("websocket write error", "err", err)
			b.drop(c)
			return
		}
	}
}

// readLoop keeps the connection alive and detects disconnects.
func (b *ProfileBroadcaster) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			b.drop(c)
			return
		}
	}
}

// drop unregisters the client so no further broadcast can reach its queue,
// then closes the queue and the connection. Safe to call from both loops.
func (b *ProfileBroadcaster) drop(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
	c.conn.Close()
}
