package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups parts and caps how many units one checkout batch may draw.
type Category struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name          string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CheckoutLimit int       `gorm:"column:checkout_limit;not null;default:10"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
