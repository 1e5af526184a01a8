package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the freelancer who owns the customer book.
type User struct {
	ID        uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null" json:"email"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Customers []Customer `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"customers,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
