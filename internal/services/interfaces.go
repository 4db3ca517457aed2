package services

import (
	"context"

	"taskpulse/internal/models"
)

// Interfaces are declared here, on the consumer side; the repository and
// realtime packages provide the concrete types.

// NotificationRepository defines what the notifier needs from storage
type NotificationRepository interface {
	Create(ctx context.Context, userID, message string) (*models.Notification, error)
}

// NotificationPusher delivers a stored notification to the recipient's user
// room. The realtime hub implements this; delivery is fire-and-forget.
type NotificationPusher interface {
	SendNotification(userID string, n *models.Notification)
}

// TaskRepository defines what the assignment flow needs from task storage
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	UpdateAssignee(ctx context.Context, taskID string, assigneeID *string) (*models.Task, error)
}
