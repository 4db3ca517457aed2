package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// User represents an account that can own projects, be assigned tasks and
// show up in a project's presence list. The same struct doubles as the wire
// shape for presence payloads, so the JSON tags are part of the protocol.
type User struct {
	ID        string         `json:"id" gorm:"type:char(27);primaryKey"`
	Name      string         `json:"name" gorm:"type:text;not null"`
	Email     string         `json:"email" gorm:"type:text;not null;uniqueIndex"`
	Image     string         `json:"image,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook generates KSUID before inserting
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = ksuid.New().String()
	}
	return nil
}
