package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bin is a container of items. Every bin carries a stable QR slug used on
// printed labels; scanning a label resolves /b/<qr_slug>.
type Bin struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	LocationID  *uint     `gorm:"index" json:"location_id,omitempty"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=1,max=150"`
	Description string    `gorm:"type:text" json:"description" validate:"max=1000"`
	Color       string    `gorm:"type:varchar(20);default:''" json:"color"`
	QRSlug      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"qr_slug"`
	ScanCount   int64     `gorm:"not null;default:0" json:"scan_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Items    []Item    `gorm:"foreignKey:BinID" json:"items,omitempty"`
}

func (b *Bin) Validate() error {
	return validator.New().Struct(b)
}

// BeforeCreate assigns the QR slug if the caller did not.
func (b *Bin) BeforeCreate(tx *gorm.DB) error {
	if b.QRSlug == "" {
		b.QRSlug = uuid.NewString()
	}
	return nil
}
