package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a card on the board. ActualHours is the cumulative tracked working
// time; the realtime hub increments it through the task repository when a
// client reports elapsed minutes.
type Task struct {
	ID             string         `json:"id" gorm:"type:char(27);primaryKey"`
	Title          string         `json:"title" gorm:"type:text;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Priority       TaskPriority   `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	ColumnID       string         `json:"column_id" gorm:"type:char(27);index;not null"`
	AssigneeID     *string        `json:"assignee_id,omitempty" gorm:"type:char(27);index"`
	Assignee       *User          `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	EstimatedHours float64        `json:"estimated_hours" gorm:"not null;default:0"`
	ActualHours    float64        `json:"actual_hours" gorm:"not null;default:0"`
	Attachments    pq.StringArray `json:"attachments" gorm:"type:text[]"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook generates KSUID before inserting
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = ksuid.New().String()
	}
	return nil
}
