package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Location is a physical place that holds bins (garage, attic, unit 4B...).
type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=1,max=150"`
	Description string    `gorm:"type:text" json:"description" validate:"max=1000"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Bins []Bin `gorm:"foreignKey:LocationID" json:"bins,omitempty"`
}

func (l *Location) Validate() error {
	return validator.New().Struct(l)
}
