package repository

import (
	"context"
	"fmt"

	"taskpulse/internal/models"

	"gorm.io/gorm"
)

// TaskRepositoryImpl handles all database operations for tasks using GORM.
// Consumers declare the interfaces they need; this is the concrete type.
type TaskRepositoryImpl struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{db: db}
}

// Create inserts a new task. The KSUID is generated in the BeforeCreate hook.
func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task with its assignee preloaded
func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task

	err := r.db.WithContext(ctx).Preload("Assignee").First(&task, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// ListByColumn returns a column's tasks, oldest first
func (r *TaskRepositoryImpl) ListByColumn(ctx context.Context, columnID string) ([]*models.Task, error) {
	var tasks []*models.Task

	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("column_id = ?", columnID).
		Order("id ASC"). // KSUIDs are time-ordered
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// IncrementActualTime adds the reported working minutes to the task's
// cumulative actual hours and returns the new total. The increment is
// applied in SQL so concurrent reports from different clients never lose
// each other's updates.
func (r *TaskRepositoryImpl) IncrementActualTime(ctx context.Context, taskID string, minutes float64) (float64, error) {
	additionalHours := minutes / 60

	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", taskID).
		UpdateColumn("actual_hours", gorm.Expr("actual_hours + ?", additionalHours))

	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment task time: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("task not found: %s", taskID)
	}

	var task models.Task
	if err := r.db.WithContext(ctx).Select("actual_hours").First(&task, "id = ?", taskID).Error; err != nil {
		return 0, fmt.Errorf("failed to read task after increment: %w", err)
	}

	return task.ActualHours, nil
}

// UpdateAssignee reassigns a task and returns it with the assignee preloaded.
// A nil assigneeID clears the assignment.
func (r *TaskRepositoryImpl) UpdateAssignee(ctx context.Context, taskID string, assigneeID *string) (*models.Task, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("assignee_id", assigneeID)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update assignee: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}

	return r.GetByID(ctx, taskID)
}

// MoveToColumn persists a drag between columns
func (r *TaskRepositoryImpl) MoveToColumn(ctx context.Context, taskID, columnID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("column_id", columnID)

	if result.Error != nil {
		return fmt.Errorf("failed to move task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}

	return nil
}
