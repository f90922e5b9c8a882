package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/enums"
)

// LedgerEntry records one checked-out unit. Rows are never deleted; deleting a
// part or profile nulls the reference and the entry survives as audit trail.
// Only status and admin_remarks may change after creation.
type LedgerEntry struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	PartID       *uuid.UUID              `gorm:"column:part_id;type:uuid;index"`
	ProfileID    *uuid.UUID              `gorm:"column:profile_id;type:uuid;index"`
	Status       enums.ReservationStatus `gorm:"column:status;type:reservation_status_enum;not null;default:reserved"`
	Notes        *string                 `gorm:"column:notes;type:text"`
	AdminRemarks *string                 `gorm:"column:admin_remarks;type:text"`
	Part         *Part                   `gorm:"foreignKey:PartID;constraint:OnDelete:SET NULL"`
	Profile      *Profile                `gorm:"foreignKey:ProfileID;constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
}
