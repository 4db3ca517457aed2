package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Comment is a message on a task's discussion thread. ParentID links replies
// to their parent comment; top-level comments have a nil ParentID.
type Comment struct {
	ID        string         `json:"id" gorm:"type:char(27);primaryKey"`
	TaskID    string         `json:"task_id" gorm:"type:char(27);index;not null"`
	UserID    string         `json:"user_id" gorm:"type:char(27);index;not null"`
	User      *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Text      string         `json:"text" gorm:"type:text;not null"`
	ParentID  *string        `json:"parent_id,omitempty" gorm:"type:char(27);index"`
	Replies   []*Comment     `json:"replies,omitempty" gorm:"-"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// CommentCreate is the request payload for posting a comment
type CommentCreate struct {
	TaskID   string  `json:"task_id"`
	Text     string  `json:"text"`
	ParentID *string `json:"parent_id,omitempty"`
}
