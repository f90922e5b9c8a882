// Package payloads defines the event data shapes stored inside outbox
// envelopes. Consumers decode these from the envelope's data field.
package payloads

import (
	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/enums"
)

// UnitReservedEvent records one unit leaving stock, paired with its ledger entry.
type UnitReservedEvent struct {
	EntryID   uuid.UUID `json:"entry_id"`
	PartID    uuid.UUID `json:"part_id"`
	ProfileID uuid.UUID `json:"profile_id"`
}

// CheckoutCompletedEvent summarizes a fully reserved checkout batch.
type CheckoutCompletedEvent struct {
	ProfileID     uuid.UUID   `json:"profile_id"`
	UnitsReserved int         `json:"units_reserved"`
	EntryIDs      []uuid.UUID `json:"entry_ids"`
}

// ReservationStatusChangedEvent records an admin lifecycle transition.
type ReservationStatusChangedEvent struct {
	EntryID    uuid.UUID               `json:"entry_id"`
	FromStatus enums.ReservationStatus `json:"from_status"`
	ToStatus   enums.ReservationStatus `json:"to_status"`
}

// PartStockAdjustedEvent records an admin absolute stock overwrite.
type PartStockAdjustedEvent struct {
	PartID      uuid.UUID `json:"part_id"`
	NewQuantity int       `json:"new_quantity"`
}
