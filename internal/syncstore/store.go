// Package syncstore is the client-side counterpart of the realtime hub. A
// Store owns one WebSocket connection, joins the user's private room and
// optionally a project room, and mirrors hub events into local state that a
// UI layer can poll or subscribe to. The mirror touches no hub memory; the
// message stream is the only relationship between the two.
package syncstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"taskpulse/internal/models"

	"github.com/gorilla/websocket"
)

// Sentinel hints carried in a MovedSignal when the change is not a plain
// task move. The signal deliberately carries ids only; receivers refetch
// authoritative state instead of trusting broadcast payloads.
const (
	HintRefresh     = "refresh"
	HintTimeUpdated = "time_updated"
)

// MovedSignal is the single-slot "something changed, refetch" signal
type MovedSignal struct {
	TaskID     string
	ToColumnID string
}

// Store mirrors hub state for one connected client
type Store struct {
	conn      *websocket.Conn
	user      models.User
	projectID string

	mu           sync.RWMutex
	onlineUsers  []models.User
	editingTasks map[string]models.EditingMark
	lastMoved    *MovedSignal

	notifications []*models.Notification
	unreadCount   int
	seen          map[string]bool

	onNotification func(*models.Notification)
	onComment      func(*models.Comment)

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// StoreOption configures a Store before it connects
type StoreOption func(*Store)

// WithNotificationHandler registers a callback invoked exactly once per
// distinct notification id, after the notification is merged into the list
func WithNotificationHandler(fn func(*models.Notification)) StoreOption {
	return func(s *Store) { s.onNotification = fn }
}

// WithCommentHandler registers a callback for commentCreated events from
// joined task rooms
func WithCommentHandler(fn func(*models.Comment)) StoreOption {
	return func(s *Store) { s.onComment = fn }
}

// Dial connects to the hub, always joins the user's private room, and joins
// the project room when projectID is non-empty. The returned store is live:
// incoming events mutate its state until Close or a read error.
func Dial(ctx context.Context, url string, user models.User, projectID string, opts ...StoreOption) (*Store, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub: %w", err)
	}

	s := &Store{
		conn:         conn,
		user:         user,
		projectID:    projectID,
		editingTasks: make(map[string]models.EditingMark),
		seen:         make(map[string]bool),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.emit(models.EventJoinUserRoom, models.JoinUserRoomPayload{UserID: user.ID}); err != nil {
		conn.Close()
		return nil, err
	}
	if projectID != "" {
		if err := s.emit(models.EventJoinProject, models.JoinProjectPayload{ProjectID: projectID, User: user}); err != nil {
			conn.Close()
			return nil, err
		}
	}

	go s.readLoop()

	return s, nil
}

// Close leaves the project room and tears the connection down, mirroring
// the unmount sequence. Reconnecting means calling Dial again; missed
// events are not replayed, the next presence broadcast and refetch restore
// consistency.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		if s.projectID != "" {
			s.emit(models.EventLeaveProject, models.LeaveProjectPayload{ProjectID: s.projectID})
		}
		err = s.conn.Close()
	})
	return err
}

// Done is closed once the read loop has exited
func (s *Store) Done() <-chan struct{} {
	return s.done
}

func (s *Store) emit(event string, payload any) error {
	frame, err := models.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to emit %s: %w", event, err)
	}
	return nil
}

// Emitters

// StartEditing announces that this user has opened a task for editing
func (s *Store) StartEditing(taskID string) error {
	return s.emitEditing(taskID, true)
}

// StopEditing announces that this user is done editing a task
func (s *Store) StopEditing(taskID string) error {
	return s.emitEditing(taskID, false)
}

func (s *Store) emitEditing(taskID string, isEditing bool) error {
	if s.projectID == "" {
		return nil
	}
	return s.emit(models.EventEditingTask, models.EditingTaskPayload{
		ProjectID: s.projectID,
		TaskID:    taskID,
		IsEditing: isEditing,
		User:      s.user,
	})
}

// EmitTaskMoved tells project peers a task was dragged to another column.
// The move must already be persisted through the REST API.
func (s *Store) EmitTaskMoved(taskID, fromColumnID, toColumnID string) error {
	if s.projectID == "" {
		return nil
	}
	return s.emit(models.EventTaskMoved, models.TaskMovedPayload{
		ProjectID:    s.projectID,
		TaskID:       taskID,
		FromColumnID: fromColumnID,
		ToColumnID:   toColumnID,
	})
}

// EmitColumnMoved tells project peers a column changed position
func (s *Store) EmitColumnMoved(columnID string, fromOrder, toOrder int) error {
	if s.projectID == "" {
		return nil
	}
	return s.emit(models.EventColumnMoved, models.ColumnMovedPayload{
		ProjectID: s.projectID,
		ColumnID:  columnID,
		FromOrder: fromOrder,
		ToOrder:   toOrder,
	})
}

// EmitTaskTimeUpdate reports elapsed working minutes; the hub persists the
// increment and broadcasts the authoritative new total to everyone,
// including this client
func (s *Store) EmitTaskTimeUpdate(taskID string, incrementMinutes float64) error {
	if s.projectID == "" {
		return nil
	}
	return s.emit(models.EventUpdateTaskTime, models.UpdateTaskTimePayload{
		ProjectID:        s.projectID,
		TaskID:           taskID,
		IncrementMinutes: incrementMinutes,
	})
}

// JoinTask scopes this connection into a task room for comment traffic
func (s *Store) JoinTask(taskID string) error {
	return s.emit(models.EventJoinTask, models.JoinTaskPayload{TaskID: taskID})
}

// LeaveTask leaves a task room
func (s *Store) LeaveTask(taskID string) error {
	return s.emit(models.EventLeaveTask, models.LeaveTaskPayload{TaskID: taskID})
}

// State accessors

// OnlineUsers returns the latest presence list for the project room
func (s *Store) OnlineUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, len(s.onlineUsers))
	copy(users, s.onlineUsers)
	return users
}

// EditingTasks returns who is editing which task, keyed by task id
func (s *Store) EditingTasks() map[string]models.EditingMark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	marks := make(map[string]models.EditingMark, len(s.editingTasks))
	for id, mark := range s.editingTasks {
		marks[id] = mark
	}
	return marks
}

// LastMoved returns the most recent change signal, or nil if none arrived
func (s *Store) LastMoved() *MovedSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastMoved == nil {
		return nil
	}
	signal := *s.lastMoved
	return &signal
}

// Notifications returns the merged notification list, most recent first
func (s *Store) Notifications() []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*models.Notification, len(s.notifications))
	copy(list, s.notifications)
	return list
}

// UnreadCount returns the number of notifications received and not yet
// acknowledged via MarkAllSeen
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadCount
}

// MarkAllSeen resets the unread counter, e.g. when the user opens the
// notification bell
func (s *Store) MarkAllSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreadCount = 0
}

// readLoop applies incoming hub events to local state until the connection
// drops
func (s *Store) readLoop() {
	defer close(s.done)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.apply(message)
	}
}

func (s *Store) apply(raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("syncstore: unparseable frame: %v", err)
		return
	}

	switch env.Event {
	case models.EventPresenceUpdate:
		var users []models.User
		if err := json.Unmarshal(env.Data, &users); err != nil {
			return
		}
		s.mu.Lock()
		s.onlineUsers = users
		s.mu.Unlock()

	case models.EventUserEditingTask:
		var mark models.EditingMark
		if err := json.Unmarshal(env.Data, &mark); err != nil {
			return
		}
		s.mu.Lock()
		s.editingTasks[mark.TaskID] = mark
		s.mu.Unlock()

	case models.EventTaskMovedUpdate:
		var update models.TaskMovedUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return
		}
		s.mu.Lock()
		s.lastMoved = &MovedSignal{TaskID: update.TaskID, ToColumnID: update.ToColumnID}
		s.mu.Unlock()

	case models.EventColumnMovedUpdate:
		s.mu.Lock()
		s.lastMoved = &MovedSignal{TaskID: HintRefresh, ToColumnID: HintRefresh}
		s.mu.Unlock()

	case models.EventTaskTimeUpdated:
		var update models.TaskTimeUpdated
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return
		}
		s.mu.Lock()
		s.lastMoved = &MovedSignal{TaskID: update.TaskID, ToColumnID: HintTimeUpdated}
		s.mu.Unlock()

	case models.EventNewNotification:
		var notification models.Notification
		if err := json.Unmarshal(env.Data, &notification); err != nil {
			return
		}
		s.mu.Lock()
		if s.seen[notification.ID] {
			s.mu.Unlock()
			return
		}
		s.seen[notification.ID] = true
		s.notifications = append([]*models.Notification{&notification}, s.notifications...)
		s.unreadCount++
		handler := s.onNotification
		s.mu.Unlock()

		if handler != nil {
			handler(&notification)
		}

	case models.EventCommentCreated:
		if s.onComment == nil {
			return
		}
		var comment models.Comment
		if err := json.Unmarshal(env.Data, &comment); err != nil {
			return
		}
		s.onComment(&comment)
	}
}
