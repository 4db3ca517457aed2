package repository

import (
	"context"
	"fmt"

	"taskpulse/internal/models"

	"gorm.io/gorm"
)

// NotificationRepositoryImpl handles all database operations for notifications
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) *NotificationRepositoryImpl {
	return &NotificationRepositoryImpl{db: db}
}

// Create stores a notification for a user
func (r *NotificationRepositoryImpl) Create(ctx context.Context, userID, message string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
	}

	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// ListByUser returns the user's most recent notifications, newest first
func (r *NotificationRepositoryImpl) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	var notifications []*models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flags a single notification as read
func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read_status", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}

	return nil
}

// MarkAllRead flags every unread notification for a user as read
func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_status = false", userID).
		Update("read_status", true).Error

	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}
