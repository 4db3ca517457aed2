package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"taskpulse/internal/models"
	"taskpulse/internal/realtime"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests. Apart from the realtime connection handler
// it depends only on the interfaces declared in this package.
type Handler struct {
	comments      CommentStore
	commentFanout CommentBroadcaster
	tasks         TaskStore
	notifications NotificationStore
	assigner      TaskAssigner
	presence      PresenceSource
	ws            *realtime.Handler
}

func NewHandler(
	comments CommentStore,
	commentFanout CommentBroadcaster,
	tasks TaskStore,
	notifications NotificationStore,
	assigner TaskAssigner,
	presence PresenceSource,
	ws *realtime.Handler,
) *Handler {
	return &Handler{
		comments:      comments,
		commentFanout: commentFanout,
		tasks:         tasks,
		notifications: notifications,
		assigner:      assigner,
		presence:      presence,
		ws:            ws,
	}
}

// requestUserID returns the caller's user id. Authentication happens at the
// gateway in front of this service; by the time a request gets here the
// identity header is trusted.
func requestUserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// Comment handlers

// CreateComment persists a comment and fans it out to every client viewing
// the task, the author's own connections included
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
		return
	}

	var create models.CommentCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if create.TaskID == "" || create.Text == "" {
		http.Error(w, "task_id and text are required", http.StatusBadRequest)
		return
	}

	comment, err := h.comments.Create(r.Context(), userID, &create)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.commentFanout.BroadcastCommentCreated(comment.TaskID, comment)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(comment)
}

func (h *Handler) ListTaskComments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	comments, err := h.comments.ListByTask(r.Context(), taskID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"comments": comments,
	})
}

// Task handlers

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// IncrementTaskTime is the REST path for time tracking; the hub's
// updateTaskTime event covers connected clients, this endpoint covers
// clients reporting time outside a live session
func (h *Handler) IncrementTaskTime(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	var body struct {
		Minutes float64 `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Minutes <= 0 {
		http.Error(w, "minutes must be positive", http.StatusBadRequest)
		return
	}

	newTotal, err := h.tasks.IncrementActualTime(r.Context(), taskID, body.Minutes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"task_id":      taskID,
		"actual_hours": newTotal,
	})
}

// MoveTask persists a drag between columns. Clients call this before
// emitting the taskMoved hub event, so the broadcast only ever signals
// already-persisted state.
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	var body struct {
		ColumnID string `json:"column_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.ColumnID == "" {
		http.Error(w, "column_id is required", http.StatusBadRequest)
		return
	}

	if err := h.tasks.MoveToColumn(r.Context(), taskID, body.ColumnID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateTaskAssignee reassigns a task; the new assignee gets a notification
// pushed to their user room
func (h *Handler) UpdateTaskAssignee(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	var body struct {
		AssigneeID *string `json:"assignee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.assigner.AssignTask(r.Context(), taskID, body.AssigneeID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// Notification handlers

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	notifications, err := h.notifications.ListByUser(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
	})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Presence handlers

// GetProjectPresence exposes the hub's derived presence list over REST so a
// freshly loaded page can render the bar before its socket connects
func (h *Handler) GetProjectPresence(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	projectID := vars["id"]

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"users": h.presence.Presence(projectID),
	})
}
