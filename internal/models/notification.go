package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Notification is a stored message for a single user. The realtime hub pushes
// freshly created notifications into the recipient's user room; the client
// dedups by ID, so IDs must be stable across push and list endpoints.
type Notification struct {
	ID         string    `json:"id" gorm:"type:char(27);primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:char(27);index;not null"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	ReadStatus bool      `json:"read_status" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = ksuid.New().String()
	}
	return nil
}
