package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateLedgerEntry OutboxAggregateType = "ledger_entry"
	AggregatePart        OutboxAggregateType = "part"
	AggregateProfile     OutboxAggregateType = "profile"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateLedgerEntry,
	AggregatePart,
	AggregateProfile,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventUnitReserved             OutboxEventType = "unit_reserved"
	EventCheckoutCompleted        OutboxEventType = "checkout_completed"
	EventReservationStatusChanged OutboxEventType = "reservation_status_changed"
	EventPartStockAdjusted        OutboxEventType = "part_stock_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventUnitReserved,
	EventCheckoutCompleted,
	EventReservationStatusChanged,
	EventPartStockAdjusted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
