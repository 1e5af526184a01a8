package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer belongs to exactly one User. Email is free text here and is not
// unique, two customers may share an address.
type Customer struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     *string   `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Address   *string   `gorm:"type:text" json:"address,omitempty"`
	Email     *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	Projects  []Project `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"projects,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
