package models

import "encoding/json"

// Wire protocol for the realtime hub. Every frame in both directions is an
// Envelope: an event name plus a JSON payload. The event names and payload
// shapes below are the interop surface shared with browser clients.

// Client -> hub events
const (
	EventJoinProject    = "joinProject"
	EventLeaveProject   = "leaveProject"
	EventJoinTask       = "joinTask"
	EventLeaveTask      = "leaveTask"
	EventJoinUserRoom   = "joinUserRoom"
	EventEditingTask    = "editingTask"
	EventTaskMoved      = "taskMoved"
	EventColumnMoved    = "columnMoved"
	EventUpdateTaskTime = "updateTaskTime"
)

// Hub -> client events. EventJoinedTask is the ack for a joinTask request;
// the rest are broadcasts.
const (
	EventJoinedTask        = "joinedTask"
	EventPresenceUpdate    = "presenceUpdate"
	EventUserEditingTask   = "userEditingTask"
	EventTaskMovedUpdate   = "taskMovedUpdate"
	EventColumnMovedUpdate = "columnMovedUpdate"
	EventTaskTimeUpdated   = "taskTimeUpdated"
	EventNewNotification   = "new_notification"
	EventCommentCreated    = "commentCreated"
)

// Envelope frames every message on the wire
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope marshals payload into a ready-to-send frame
func NewEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// JoinProjectPayload announces a user entering a project board
type JoinProjectPayload struct {
	ProjectID string `json:"projectId"`
	User      User   `json:"user"`
}

type LeaveProjectPayload struct {
	ProjectID string `json:"projectId"`
}

type JoinTaskPayload struct {
	TaskID string `json:"taskId"`
}

type LeaveTaskPayload struct {
	TaskID string `json:"taskId"`
}

type JoinUserRoomPayload struct {
	UserID string `json:"userId"`
}

// EditingTaskPayload signals a user opening or closing a task for editing
type EditingTaskPayload struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
	IsEditing bool   `json:"isEditing"`
	User      User   `json:"user"`
}

// TaskMovedPayload signals a drag between columns. The move itself is already
// persisted by the client through the REST API before this event is sent.
type TaskMovedPayload struct {
	ProjectID    string `json:"projectId"`
	TaskID       string `json:"taskId"`
	FromColumnID string `json:"fromColumnId,omitempty"`
	ToColumnID   string `json:"toColumnId"`
}

type ColumnMovedPayload struct {
	ProjectID string `json:"projectId"`
	ColumnID  string `json:"columnId"`
	FromOrder int    `json:"fromOrder"`
	ToOrder   int    `json:"toOrder"`
}

// UpdateTaskTimePayload reports elapsed working minutes since the client's
// last report. The hub persists the increment before broadcasting.
type UpdateTaskTimePayload struct {
	ProjectID        string  `json:"projectId"`
	TaskID           string  `json:"taskId"`
	IncrementMinutes float64 `json:"incrementMinutes"`
}

// EditingMark is the broadcast shape for userEditingTask and also the value
// stored per task id in the hub's editing map. Last writer wins.
type EditingMark struct {
	TaskID    string `json:"taskId"`
	IsEditing bool   `json:"isEditing"`
	User      User   `json:"user"`
}

// TaskMovedUpdate is fanned out to project peers after a move
type TaskMovedUpdate struct {
	TaskID       string `json:"taskId"`
	FromColumnID string `json:"fromColumnId,omitempty"`
	ToColumnID   string `json:"toColumnId"`
}

type ColumnMovedUpdate struct {
	ColumnID  string `json:"columnId"`
	FromOrder int    `json:"fromOrder"`
	ToOrder   int    `json:"toOrder"`
}

// TaskTimeUpdated carries the authoritative new total computed at the moment
// of persistence. This is the one broadcast payload clients may trust
// directly instead of refetching.
type TaskTimeUpdated struct {
	TaskID           string  `json:"taskId"`
	IncrementMinutes float64 `json:"incrementMinutes"`
	NewActualHours   float64 `json:"newActualHours"`
}
