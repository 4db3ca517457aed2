package realtime

import (
	"context"
	"encoding/json"
	"log"

	"taskpulse/internal/middleware"
	"taskpulse/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// route dispatches one client-originated frame. Malformed payloads and
// unknown event names are logged and dropped; nothing is ever reported back
// to the client as a hub-level error.
func (h *Hub) route(ctx context.Context, c *Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("Connection %s sent an unparseable frame: %v", c.ID, err)
		return
	}

	ctx, span := middleware.StartSpan(ctx, "Hub.HandleEvent",
		attribute.String("connection.id", c.ID),
		attribute.String("event", env.Event),
	)
	defer span.End()

	switch env.Event {
	case models.EventJoinProject:
		var p models.JoinProjectPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleJoinProject(c, p)

	case models.EventLeaveProject:
		var p models.LeaveProjectPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleLeaveProject(c, p)

	case models.EventJoinTask:
		var p models.JoinTaskPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleJoinTask(c, p)

	case models.EventLeaveTask:
		var p models.LeaveTaskPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleLeaveTask(c, p)

	case models.EventJoinUserRoom:
		var p models.JoinUserRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleJoinUserRoom(c, p)

	case models.EventEditingTask:
		var p models.EditingTaskPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleEditingTask(c, p)

	case models.EventTaskMoved:
		var p models.TaskMovedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleTaskMoved(c, p)

	case models.EventColumnMoved:
		var p models.ColumnMovedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleColumnMoved(c, p)

	case models.EventUpdateTaskTime:
		var p models.UpdateTaskTimePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.dropFrame(ctx, c, env.Event, err)
			return
		}
		h.handleUpdateTaskTime(ctx, c, p)

	default:
		log.Printf("Connection %s sent unknown event %q", c.ID, env.Event)
	}
}

func (h *Hub) dropFrame(ctx context.Context, c *Client, event string, err error) {
	log.Printf("Connection %s sent malformed %s payload: %v", c.ID, event, err)
	middleware.AddSpanError(ctx, err)
}

// handleJoinProject attaches the announced identity, joins the project room,
// recomputes presence and broadcasts the full replacement list to the room.
// The joiner additionally receives a snapshot of the project's current
// editing marks so its board reflects in-flight edits.
func (h *Hub) handleJoinProject(c *Client, p models.JoinProjectPayload) {
	roomKey := ProjectRoom(p.ProjectID)

	h.mu.Lock()
	h.registry.attachIdentity(c.ID, p.User)
	h.rooms.join(c, roomKey)
	marks := h.editingMarksLocked(p.ProjectID)
	h.mu.Unlock()

	log.Printf("  User %s joined project %s", p.User.ID, p.ProjectID)

	h.broadcastPresence(roomKey)

	for _, mark := range marks {
		if frame, err := models.NewEnvelope(models.EventUserEditingTask, mark); err == nil {
			h.sendTo(c, frame)
		}
	}
}

func (h *Hub) handleLeaveProject(c *Client, p models.LeaveProjectPayload) {
	roomKey := ProjectRoom(p.ProjectID)

	h.mu.Lock()
	h.rooms.leave(c, roomKey)
	h.mu.Unlock()

	log.Printf("  Connection %s left project %s", c.ID, p.ProjectID)

	h.broadcastPresence(roomKey)
}

// handleJoinTask scopes the connection into a task room so comment and
// editing traffic for that task reaches it. The joiner gets an ack frame;
// nothing is broadcast.
func (h *Hub) handleJoinTask(c *Client, p models.JoinTaskPayload) {
	h.mu.Lock()
	h.rooms.join(c, TaskRoom(p.TaskID))
	h.mu.Unlock()

	if frame, err := models.NewEnvelope(models.EventJoinedTask, p.TaskID); err == nil {
		h.sendTo(c, frame)
	}
}

func (h *Hub) handleLeaveTask(c *Client, p models.LeaveTaskPayload) {
	h.mu.Lock()
	h.rooms.leave(c, TaskRoom(p.TaskID))
	h.mu.Unlock()
}

// handleJoinUserRoom joins the connection's private room used for
// notification delivery
func (h *Hub) handleJoinUserRoom(c *Client, p models.JoinUserRoomPayload) {
	h.mu.Lock()
	h.registry.attachIdentity(c.ID, models.User{ID: p.UserID})
	h.rooms.join(c, UserRoom(p.UserID))
	h.mu.Unlock()

	log.Printf("  Connection %s joined user room %s", c.ID, p.UserID)
}

// handleEditingTask records the mark (last writer wins) and tells everyone
// else in the project who is editing what
func (h *Hub) handleEditingTask(c *Client, p models.EditingTaskPayload) {
	mark := models.EditingMark{TaskID: p.TaskID, IsEditing: p.IsEditing, User: p.User}

	h.mu.Lock()
	if h.editing[p.ProjectID] == nil {
		h.editing[p.ProjectID] = make(map[string]models.EditingMark)
	}
	h.editing[p.ProjectID][p.TaskID] = mark
	h.mu.Unlock()

	frame, err := models.NewEnvelope(models.EventUserEditingTask, mark)
	if err != nil {
		return
	}
	h.enqueue(&broadcastMessage{roomKey: ProjectRoom(p.ProjectID), frame: frame, exclude: c})
}

// handleTaskMoved relays a move notice to project peers. The move itself was
// already persisted by the client through the REST API, so the payload only
// carries ids and the receivers refetch authoritative state.
func (h *Hub) handleTaskMoved(c *Client, p models.TaskMovedPayload) {
	update := models.TaskMovedUpdate{
		TaskID:       p.TaskID,
		FromColumnID: p.FromColumnID,
		ToColumnID:   p.ToColumnID,
	}
	frame, err := models.NewEnvelope(models.EventTaskMovedUpdate, update)
	if err != nil {
		return
	}
	h.enqueue(&broadcastMessage{roomKey: ProjectRoom(p.ProjectID), frame: frame, exclude: c})
}

func (h *Hub) handleColumnMoved(c *Client, p models.ColumnMovedPayload) {
	update := models.ColumnMovedUpdate{
		ColumnID:  p.ColumnID,
		FromOrder: p.FromOrder,
		ToOrder:   p.ToOrder,
	}
	frame, err := models.NewEnvelope(models.EventColumnMovedUpdate, update)
	if err != nil {
		return
	}
	h.enqueue(&broadcastMessage{roomKey: ProjectRoom(p.ProjectID), frame: frame, exclude: c})
}

// handleUpdateTaskTime persists the increment first and only broadcasts the
// confirmed total. On a persistence failure the event is logged and dropped;
// the sender reconciles on its next full refresh. The sender is included in
// the broadcast because it needs the authoritative new total.
func (h *Hub) handleUpdateTaskTime(ctx context.Context, c *Client, p models.UpdateTaskTimePayload) {
	if h.times == nil {
		log.Printf("No task time store configured, dropping updateTaskTime for task %s", p.TaskID)
		return
	}

	ctx, span := middleware.StartSpan(ctx, "Hub.UpdateTaskTime",
		attribute.String("task.id", p.TaskID),
		attribute.Float64("increment.minutes", p.IncrementMinutes),
	)
	defer span.End()

	newTotal, err := h.times.IncrementActualTime(ctx, p.TaskID, p.IncrementMinutes)
	if err != nil {
		log.Printf("Failed to persist time increment for task %s: %v", p.TaskID, err)
		middleware.AddSpanError(ctx, err)
		return
	}

	update := models.TaskTimeUpdated{
		TaskID:           p.TaskID,
		IncrementMinutes: p.IncrementMinutes,
		NewActualHours:   newTotal,
	}
	frame, err := models.NewEnvelope(models.EventTaskTimeUpdated, update)
	if err != nil {
		return
	}
	h.enqueue(&broadcastMessage{roomKey: ProjectRoom(p.ProjectID), frame: frame})
}
