// Package repository defines error values that are reused across multiple
// repositories.  These sentinels let handlers distinguish failure scenarios
// without inspecting SQL errors: ErrConflict signals that an operation
// cannot proceed because of dependent records (e.g. deleting an event that
// still has confirmed bookings), while SeatConflictError reports exactly
// which requested seats could not be taken.
package repository

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// SeatConflictError describes a booking or hold request that hit seats
// which cannot be taken: booked, held under another live token, or
// nonexistent.  The response does not say which.  Unavailable carries
// every offending id so clients can re-prompt seat selection; handlers
// translate it into HTTP 400.
type SeatConflictError struct {
	Unavailable []uint64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("%d requested seat(s) unavailable", len(e.Unavailable))
}
