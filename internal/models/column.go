package models

import (
	"time"

	"gorm.io/gorm"
)

// Column is an ordered bucket of tasks within a board. Position keys are
// contiguous (0..n-1) after every structural mutation; listings always sort
// by position then id, never by insertion order.
type Column struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	BoardID   uint64         `gorm:"not null;index" json:"board_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Position  int            `gorm:"not null;default:0" json:"order"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Board Board  `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	Tasks []Task `gorm:"foreignKey:ColumnID" json:"tasks,omitempty"`
}

func (Column) TableName() string {
	return "kanban_columns"
}
