package models

import (
	"time"

	"gorm.io/gorm"
)

type Board struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []BoardMember `gorm:"foreignKey:BoardID" json:"members,omitempty"`
	Columns []Column      `gorm:"foreignKey:BoardID" json:"columns,omitempty"`
}
