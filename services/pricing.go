package services

import (
	"time"

	"staysync-server/models"
)

const nightDuration = 24 * time.Hour

// Nights returns the number of billable nights for a stay: any partial night
// rounds up, and no stay bills fewer than one night.
func Nights(checkIn, checkOut time.Time) int64 {
	d := checkOut.Sub(checkIn)
	if d < 0 {
		d = -d
	}
	nights := int64((d + nightDuration - 1) / nightDuration)
	if nights < 1 {
		nights = 1
	}
	return nights
}

// StayPrice derives the total for a stay from the room's nightly rate. The
// client never supplies a price.
func StayPrice(room *models.Room, checkIn, checkOut time.Time) int64 {
	return Nights(checkIn, checkOut) * room.Price
}
