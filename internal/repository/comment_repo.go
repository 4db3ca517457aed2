package repository

import (
	"context"
	"fmt"
	"sort"

	"taskpulse/internal/models"

	"gorm.io/gorm"
)

// CommentRepositoryImpl handles all database operations for comments
type CommentRepositoryImpl struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) *CommentRepositoryImpl {
	return &CommentRepositoryImpl{db: db}
}

// Create inserts a comment and returns it with the author preloaded, since
// the stored row is also the broadcast payload for the task room.
func (r *CommentRepositoryImpl) Create(ctx context.Context, userID string, create *models.CommentCreate) (*models.Comment, error) {
	comment := &models.Comment{
		TaskID:   create.TaskID,
		UserID:   userID,
		Text:     create.Text,
		ParentID: create.ParentID,
	}

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := r.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created comment: %w", err)
	}

	return comment, nil
}

// ListByTask returns a task's comments as a thread tree: newest top-level
// comments first, replies oldest first under their parent. A reply whose
// parent is missing is promoted to top level rather than dropped.
func (r *CommentRepositoryImpl) ListByTask(ctx context.Context, taskID string) ([]*models.Comment, error) {
	var comments []*models.Comment

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Find(&comments).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return buildCommentTree(comments), nil
}

func buildCommentTree(comments []*models.Comment) []*models.Comment {
	byID := make(map[string]*models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}

	var roots []*models.Comment
	for _, c := range comments {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}

	sort.Slice(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
	for _, c := range byID {
		sortRepliesAsc(c)
	}

	return roots
}

func sortRepliesAsc(c *models.Comment) {
	sort.Slice(c.Replies, func(i, j int) bool {
		return c.Replies[i].CreatedAt.Before(c.Replies[j].CreatedAt)
	})
}
