package enums

import "fmt"

// ReservationStatus maps to the reservation_status_enum enum in Postgres.
type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "reserved"
	ReservationStatusIssued   ReservationStatus = "issued"
	ReservationStatusReturned ReservationStatus = "returned"
	ReservationStatusLost     ReservationStatus = "lost"
	ReservationStatusDamaged  ReservationStatus = "damaged"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusReserved,
	ReservationStatusIssued,
	ReservationStatusReturned,
	ReservationStatusLost,
	ReservationStatusDamaged,
}

// String implements fmt.Stringer.
func (s ReservationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReservationStatus.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected from the status.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusReturned, ReservationStatusLost, ReservationStatusDamaged:
		return true
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
