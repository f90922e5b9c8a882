package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
)

// CheckoutLine is one (part, quantity) request inside a checkout batch.
type CheckoutLine struct {
	PartID   uuid.UUID `json:"part_id"`
	Quantity int       `json:"quantity"`
}

// CheckoutInput is the full checkout batch as submitted by the caller.
type CheckoutInput struct {
	Lines []CheckoutLine
	Notes *string
}

// LineResult reports per-line progress of a checkout batch.
type LineResult struct {
	PartID    uuid.UUID `json:"part_id"`
	Requested int       `json:"requested"`
	Reserved  int       `json:"reserved"`
}

// CheckoutResult summarizes a completed checkout batch.
type CheckoutResult struct {
	UnitsReserved int          `json:"units_reserved"`
	EntryIDs      []uuid.UUID  `json:"entry_ids"`
	Lines         []LineResult `json:"lines"`
}

// UpdateStatusInput carries an admin's lifecycle transition request.
type UpdateStatusInput struct {
	Status       enums.ReservationStatus
	AdminRemarks *string
}

// EntryDTO is the outward-facing shape of a ledger entry. Part and profile
// references are nullable because either side may have been deleted since
// the entry was written.
type EntryDTO struct {
	ID           uuid.UUID               `json:"id"`
	PartID       *uuid.UUID              `json:"part_id,omitempty"`
	PartName     *string                 `json:"part_name,omitempty"`
	ProfileID    *uuid.UUID              `json:"profile_id,omitempty"`
	Username     *string                 `json:"username,omitempty"`
	Status       enums.ReservationStatus `json:"status"`
	Notes        *string                 `json:"notes,omitempty"`
	AdminRemarks *string                 `json:"admin_remarks,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

// PartOutstandingDTO reports how many of a part's units are out with
// borrowers, counting entries still in a non-terminal status.
type PartOutstandingDTO struct {
	PartID           uuid.UUID `json:"part_id"`
	UnitsOutstanding int64     `json:"units_outstanding"`
}

// EntryPage is one page of ledger entries plus the cursor for the next page.
type EntryPage struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// EntryFromModel maps a persisted ledger entry to its DTO.
func EntryFromModel(entry *models.LedgerEntry) *EntryDTO {
	if entry == nil {
		return nil
	}
	dto := &EntryDTO{
		ID:           entry.ID,
		PartID:       entry.PartID,
		ProfileID:    entry.ProfileID,
		Status:       entry.Status,
		Notes:        entry.Notes,
		AdminRemarks: entry.AdminRemarks,
		CreatedAt:    entry.CreatedAt,
	}
	if entry.Part != nil {
		name := entry.Part.Name
		dto.PartName = &name
	}
	if entry.Profile != nil {
		username := entry.Profile.Username
		dto.Username = &username
	}
	return dto
}
