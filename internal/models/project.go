package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Project is a Kanban board shared by its members. Board state lives in the
// columns and tasks; the realtime hub only ever refers to a project by id.
type Project struct {
	ID          string         `json:"id" gorm:"type:char(27);primaryKey"`
	Name        string         `json:"name" gorm:"type:text;not null"`
	Description string         `json:"description" gorm:"type:text"`
	OwnerID     string         `json:"owner_id" gorm:"type:char(27);index;not null"`
	Columns     []Column       `json:"columns,omitempty" gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = ksuid.New().String()
	}
	return nil
}

// Column is one vertical lane on a board. Order is the zero-based position
// among the project's columns.
type Column struct {
	ID        string         `json:"id" gorm:"type:char(27);primaryKey"`
	Name      string         `json:"name" gorm:"type:text;not null"`
	Order     int            `json:"order" gorm:"column:position;not null;default:0"`
	ProjectID string         `json:"project_id" gorm:"type:char(27);index;not null"`
	Tasks     []Task         `json:"tasks,omitempty" gorm:"foreignKey:ColumnID"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}
