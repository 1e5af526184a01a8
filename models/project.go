package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	ID         uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Name       string                      `gorm:"type:varchar(255);not null" json:"name"`
	Notes      *string                     `gorm:"type:text" json:"notes,omitempty"`
	TodoList   datatypes.JSONSlice[string] `gorm:"column:todo_list" json:"todo_list"`
	Price      decimal.NullDecimal         `gorm:"type:decimal(10,2)" json:"price"`
	TimeSpent  *int                        `gorm:"column:time_spent" json:"time_spent,omitempty"` // minutes
	CustomerID uuid.UUID                   `gorm:"type:char(36);not null;index" json:"customer_id"`
	CreatedAt  time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                   `gorm:"not null" json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps todo_list a JSON array, never null.
func (p *Project) BeforeSave(tx *gorm.DB) error {
	if p.TodoList == nil {
		p.TodoList = datatypes.JSONSlice[string]{}
	}
	return nil
}
