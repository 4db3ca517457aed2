package api

import (
	"context"

	"taskpulse/internal/models"
)

// Handlers are the consumer here, so the interfaces they depend on live in
// this package; repositories, services and the realtime hub satisfy them.

// CommentStore is what the comment endpoints need from storage
type CommentStore interface {
	Create(ctx context.Context, userID string, create *models.CommentCreate) (*models.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]*models.Comment, error)
}

// CommentBroadcaster fans a persisted comment out to the task room
type CommentBroadcaster interface {
	BroadcastCommentCreated(taskID string, comment *models.Comment)
}

// TaskStore is what the task endpoints need from storage
type TaskStore interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	IncrementActualTime(ctx context.Context, taskID string, minutes float64) (float64, error)
	MoveToColumn(ctx context.Context, taskID, columnID string) error
}

// NotificationStore is what the notification endpoints need from storage
type NotificationStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// TaskAssigner reassigns tasks and notifies the new assignee
type TaskAssigner interface {
	AssignTask(ctx context.Context, taskID string, assigneeID *string) (*models.Task, error)
}

// PresenceSource exposes the hub's derived presence list
type PresenceSource interface {
	Presence(projectID string) []models.User
}
