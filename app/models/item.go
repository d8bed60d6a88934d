package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Item is a physical thing stored inside a bin.
type Item struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	BinID         uint      `gorm:"not null;index" json:"bin_id"`
	Name          string    `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=1,max=200"`
	Description   string    `gorm:"type:text" json:"description" validate:"max=2000"`
	Quantity      int       `gorm:"not null;default:1" json:"quantity" validate:"min=0"`
	PhotoPath     string    `gorm:"type:varchar(255);default:''" json:"photo_path"`
	ThumbnailPath string    `gorm:"type:varchar(255);default:''" json:"thumbnail_path"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Item) Validate() error {
	return validator.New().Struct(i)
}
