package services

import (
	"errors"
	"fmt"
	"time"
)

// Booking errors are decided before anything is written; a create either
// persists a complete booking or nothing at all.
var (
	ErrRoomNotFound          = errors.New("room not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInvalidDateRange      = errors.New("check-out date must be after check-in date")
	ErrCheckInInPast         = errors.New("check-in date cannot be in the past")
	ErrForbiddenStatusChange = errors.New("guests can only cancel bookings")
	ErrNotAuthorized         = errors.New("not authorized to access this booking")
	ErrInvalidTransition     = errors.New("booking status can no longer change")
	// ErrBusy means the room's critical section could not be entered in time.
	// Unlike a conflict, the caller may simply retry.
	ErrBusy = errors.New("room is busy, please retry")
)

// ConflictError reports the existing active booking that blocks a requested
// stay, so the caller can tell the guest exactly which dates are taken.
type ConflictError struct {
	BookingID uint
	CheckIn   time.Time
	CheckOut  time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room is already booked from %s to %s",
		e.CheckIn.Format("Mon Jan 2 2006"), e.CheckOut.Format("Mon Jan 2 2006"))
}
