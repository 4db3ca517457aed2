package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"taskpulse/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one live transport session. The id is transport-assigned and
// opaque; user and rooms are owned by the hub and guarded by its mutex.
// A nil conn is allowed, which the tests use to drive the hub without a
// real websocket.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	user  *models.User
	rooms map[string]struct{}
	seq   uint64

	closeOnce sync.Once
}

// NewClient creates a session for an accepted connection. It must still be
// passed to Hub.Register before it can join rooms.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    id,
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, hub.sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// User returns the identity attached to the connection, if any
func (c *Client) User() *models.User {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.user
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// ReadPump reads frames from the WebSocket connection and feeds them to the
// event router. It runs in its own goroutine per connection; on any read
// error the connection is unregistered, which removes it from all rooms and
// triggers the presence rebroadcasts.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error on connection %s: %v", c.ID, err)
			}
			break
		}

		c.hub.route(ctx, c, message)
	}
}

// WritePump writes queued frames to the WebSocket connection and keeps the
// connection alive with pings. One frame per websocket message; frames are
// self-contained JSON envelopes.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
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
