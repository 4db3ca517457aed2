package realtime

import (
	"context"
	"log"
	"strings"
	"sync"

	"taskpulse/internal/models"
)

// TaskTimes is what the hub needs from task persistence: apply one reported
// increment of working minutes and return the new cumulative hour total.
type TaskTimes interface {
	IncrementActualTime(ctx context.Context, taskID string, minutes float64) (float64, error)
}

// Hub owns the connection registry, the room router, the presence tracker
// and the per-project editing marks. Shared maps are guarded by mu; frame
// delivery and disconnect cleanup are serialized on a single loop goroutine,
// so send channels are only ever written and closed from that goroutine and
// delivery order within a room matches event-arrival order on the hub.
type Hub struct {
	registry *registry
	rooms    *roomRouter

	// editing marks per project, keyed by task id, last writer wins.
	// Marks have no expiry; a stale mark stays until the next edit event
	// for that task.
	editing map[string]map[string]models.EditingMark

	broadcast  chan *broadcastMessage
	unregister chan *Client
	mu         sync.RWMutex

	times TaskTimes

	sendBuffer   int
	done         chan struct{}
	loopDone     chan struct{}
	shutdownOnce sync.Once
}

// broadcastMessage is one frame destined for every connection in a room,
// optionally excluding the originator. When target is set the frame goes to
// that single connection instead. When presenceOf is set the frame is a
// presence update for that room, built at delivery time so it reflects
// membership at the moment of delivery rather than at enqueue time.
type broadcastMessage struct {
	roomKey    string
	frame      []byte
	exclude    *Client
	target     *Client
	presenceOf string
}

// NewHub creates a hub. times may be nil in setups without task persistence;
// updateTaskTime events are then dropped.
func NewHub(times TaskTimes, opts ...Option) *Hub {
	h := &Hub{
		registry:   newRegistry(),
		rooms:      newRoomRouter(),
		editing:    make(map[string]map[string]models.EditingMark),
		broadcast:  make(chan *broadcastMessage, 256),
		unregister: make(chan *Client, 64),
		times:      times,
		sendBuffer: 256,
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option configures a Hub
type Option func(*Hub)

// WithSendBuffer sets the per-connection outbound queue length
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithBroadcastQueue sets the pending broadcast queue length
func WithBroadcastQueue(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.broadcast = make(chan *broadcastMessage, n)
		}
	}
}

// Start begins the hub's event loop
func (h *Hub) Start() {
	log.Println("🔄 Starting realtime hub...")

	go func() {
		defer close(h.loopDone)
		for {
			select {
			case <-h.done:
				h.closeAll()
				return
			case c := <-h.unregister:
				h.handleUnregister(c)
			case msg := <-h.broadcast:
				h.deliver(msg)
			}
		}
	}()

	log.Println("✓ Realtime hub started")
}

// Register adds a freshly connected client to the registry
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.registry.register(c)
	total := h.registry.len()
	h.mu.Unlock()

	log.Printf("  Connection %s registered (total: %d)", c.ID, total)
}

// Unregister queues disconnect cleanup for a client. The loop goroutine
// removes it from every room it had joined and rebroadcasts presence for
// each project room it was in. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// handleUnregister runs on the loop goroutine only
func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	keys, ok := h.registry.unregister(c.ID)
	if !ok {
		h.mu.Unlock()
		return
	}
	h.rooms.leaveAll(c)
	close(c.send)
	remaining := h.registry.len()
	h.mu.Unlock()

	log.Printf("  Connection %s unregistered (remaining: %d)", c.ID, remaining)

	for _, key := range keys {
		if strings.HasPrefix(key, "project:") {
			h.deliver(&broadcastMessage{presenceOf: key})
		}
	}

	c.close()
}

// enqueue queues a frame for room delivery
func (h *Hub) enqueue(msg *broadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// deliver fans one frame out to the room's current members. Runs on the loop
// goroutine only. A member whose send queue is full is treated as dead and
// unregistered on the spot.
func (h *Hub) deliver(msg *broadcastMessage) {
	if msg.presenceOf != "" {
		h.mu.RLock()
		users := h.presenceLocked(msg.presenceOf)
		h.mu.RUnlock()

		frame, err := models.NewEnvelope(models.EventPresenceUpdate, users)
		if err != nil {
			return
		}
		msg.roomKey = msg.presenceOf
		msg.frame = frame
	}

	if msg.target != nil {
		h.mu.RLock()
		_, registered := h.registry.get(msg.target.ID)
		h.mu.RUnlock()
		if !registered {
			return
		}
		select {
		case msg.target.send <- msg.frame:
		default:
			log.Printf("⚠️  Connection %s send buffer full, dropping connection", msg.target.ID)
			h.handleUnregister(msg.target)
		}
		return
	}

	h.mu.RLock()
	members := h.rooms.members(msg.roomKey)
	h.mu.RUnlock()

	var dead []*Client
	for _, c := range members {
		if msg.exclude != nil && c == msg.exclude {
			continue
		}
		select {
		case c.send <- msg.frame:
		default:
			log.Printf("⚠️  Connection %s send buffer full, dropping connection", c.ID)
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		h.handleUnregister(c)
	}
}

// sendTo queues a frame for a single connection
func (h *Hub) sendTo(c *Client, frame []byte) {
	h.enqueue(&broadcastMessage{target: c, frame: frame})
}

// SendNotification pushes a stored notification into the recipient's user
// room. Connections of the same user on other devices all receive it; the
// client side dedups by notification id.
func (h *Hub) SendNotification(userID string, n *models.Notification) {
	frame, err := models.NewEnvelope(models.EventNewNotification, n)
	if err != nil {
		log.Printf("Failed to encode notification %s: %v", n.ID, err)
		return
	}
	h.enqueue(&broadcastMessage{roomKey: UserRoom(userID), frame: frame})
}

// BroadcastCommentCreated fans a freshly persisted comment out to everyone
// viewing the task, including the author's own connections, so all open
// threads stay consistent.
func (h *Hub) BroadcastCommentCreated(taskID string, comment *models.Comment) {
	frame, err := models.NewEnvelope(models.EventCommentCreated, comment)
	if err != nil {
		log.Printf("Failed to encode comment %s: %v", comment.ID, err)
		return
	}
	h.enqueue(&broadcastMessage{roomKey: TaskRoom(taskID), frame: frame})
}

// RoomSize reports the current membership count of a room
func (h *Hub) RoomSize(roomKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.size(roomKey)
}

// EditingMarks returns the current editing marks for a project
func (h *Hub) EditingMarks(projectID string) []models.EditingMark {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.editingMarksLocked(projectID)
}

func (h *Hub) editingMarksLocked(projectID string) []models.EditingMark {
	marks := make([]models.EditingMark, 0, len(h.editing[projectID]))
	for _, mark := range h.editing[projectID] {
		marks = append(marks, mark)
	}
	return marks
}

// Shutdown stops the event loop and waits for it to close every active
// connection. The loop goroutine does the closing itself, so Shutdown never
// races a delivery in flight; send channels are only ever written and closed
// from the loop. Must be preceded by Start. Safe to call more than once.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		log.Println("🛑 Shutting down realtime hub...")

		close(h.done)
		<-h.loopDone

		log.Println("✓ Realtime hub shutdown complete")
	})
}

// closeAll tears down every connection. Runs on the loop goroutine only, as
// its final act before exiting.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.registry.conns {
		h.rooms.leaveAll(c)
		close(c.send)
		c.close()
	}
	h.registry.conns = make(map[string]*Client)
}
