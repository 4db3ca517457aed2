package services

import (
	"context"
	"fmt"
	"log"

	"taskpulse/internal/middleware"
	"taskpulse/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Notifier persists notifications and pushes them to the recipient's user
// room. Persistence is authoritative: a notification that could not be
// stored is never pushed, while a stored notification whose push finds no
// live connection is simply picked up from the list endpoint later.
type Notifier struct {
	notifications NotificationRepository
	tasks         TaskRepository
	pusher        NotificationPusher
}

// NewNotifier creates a notifier
func NewNotifier(notifications NotificationRepository, tasks TaskRepository, pusher NotificationPusher) *Notifier {
	return &Notifier{
		notifications: notifications,
		tasks:         tasks,
		pusher:        pusher,
	}
}

// Notify stores a notification for the user and pushes it to their user room
func (n *Notifier) Notify(ctx context.Context, userID, message string) (*models.Notification, error) {
	ctx, span := middleware.StartSpan(ctx, "Notifier.Notify",
		attribute.String("user.id", userID),
	)
	defer span.End()

	notification, err := n.notifications.Create(ctx, userID, message)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	n.pusher.SendNotification(userID, notification)

	return notification, nil
}

// AssignTask reassigns a task and notifies the new assignee when the
// assignment actually changed hands
func (n *Notifier) AssignTask(ctx context.Context, taskID string, assigneeID *string) (*models.Task, error) {
	ctx, span := middleware.StartSpan(ctx, "Notifier.AssignTask",
		attribute.String("task.id", taskID),
	)
	defer span.End()

	before, err := n.tasks.GetByID(ctx, taskID)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	task, err := n.tasks.UpdateAssignee(ctx, taskID, assigneeID)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	if assigneeID != nil && (before.AssigneeID == nil || *before.AssigneeID != *assigneeID) {
		message := fmt.Sprintf("You have been assigned to task: %s", task.Title)
		if _, err := n.Notify(ctx, *assigneeID, message); err != nil {
			// The reassignment itself succeeded; a lost notification is
			// not worth failing the request over
			log.Printf("Failed to notify assignee %s for task %s: %v", *assigneeID, taskID, err)
		}
	}

	return task, nil
}
