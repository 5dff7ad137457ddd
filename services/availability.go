package services

import (
	"errors"
	"time"

	"staysync-server/models"

	"gorm.io/gorm"
)

// activeStatuses are the booking states that hold a room. Cancelled and
// completed stays free it.
var activeStatuses = []models.BookingStatus{models.BookingPending, models.BookingConfirmed}

// findConflict returns the earliest active booking on roomID whose
// [CheckIn, CheckOut) interval overlaps the requested one, or nil when the
// range is free. Boundaries may touch: a stay can check in the day another
// checks out. Callers must already have validated checkIn < checkOut.
func findConflict(db *gorm.DB, roomID uint, checkIn, checkOut time.Time, excludeBookingID uint) (*models.Booking, error) {
	q := db.Where("room_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
		roomID, activeStatuses, checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}

	var existing models.Booking
	err := q.Order("check_in ASC").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}
