package models

import (
	"time"

	"github.com/google/uuid"
)

// Part is a stocked component. Quantity is the available-stock counter and is
// mutated only by admin stock adjustments and the ledger service's conditional
// decrement; the DB enforces quantity >= 0.
type Part struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	Barcode     *string   `gorm:"column:barcode;type:text;uniqueIndex"`
	Category    *Category `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
