package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Image        string         `gorm:"type:varchar(500)" json:"image"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Boards []BoardMember `gorm:"foreignKey:UserID" json:"-"`
}

// Ref returns the snapshot form used in task member sets.
func (u *User) Ref() MemberRef {
	return MemberRef{
		ID:    u.ID,
		Name:  u.Name,
		Image: u.Image,
	}
}
