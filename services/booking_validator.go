package services

import (
	"time"

	"staysync-server/models"
)

// Actor identifies the authenticated caller as supplied by the identity
// layer. The booking service trusts it and does no credential checks.
type Actor struct {
	ID   uint
	Role string
}

// Privileged reports whether the actor bypasses ownership checks.
func (a Actor) Privileged() bool {
	return a.Role == models.RoleStaff || a.Role == models.RoleAdmin
}

// Booking actions checked through Can.
const (
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Can is the single place ownership and role rules for bookings live:
// guests act only on their own records, staff and admin bypass ownership,
// and hard deletion is admin-only.
func Can(actor Actor, action string, booking *models.Booking) bool {
	switch action {
	case ActionDelete:
		return actor.Role == models.RoleAdmin
	case ActionRead, ActionUpdate:
		if actor.Privileged() {
			return true
		}
		return booking.GuestID == actor.ID
	default:
		return false
	}
}

// validateStayDates enforces ordering and the past-date rule. The past check
// compares calendar days in UTC, not timestamps, so a same-day check-in is
// accepted regardless of the guest's timezone.
func validateStayDates(checkIn, checkOut time.Time, now time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() || !checkIn.Before(checkOut) {
		return ErrInvalidDateRange
	}
	today := now.UTC().Format("2006-01-02")
	checkInDay := checkIn.UTC().Format("2006-01-02")
	if checkInDay < today {
		return ErrCheckInInPast
	}
	return nil
}

func knownStatus(status models.BookingStatus) bool {
	switch status {
	case models.BookingPending, models.BookingConfirmed, models.BookingCancelled, models.BookingCompleted:
		return true
	}
	return false
}

// validateStatusPatch applies the role rule on updates: guests may only move
// a booking to Cancelled, privileged roles may request any known status
// (still subject to the state machine).
func validateStatusPatch(actor Actor, status models.BookingStatus) error {
	if !knownStatus(status) {
		return ErrInvalidTransition
	}
	if !actor.Privileged() && status != models.BookingCancelled {
		return ErrForbiddenStatusChange
	}
	return nil
}
