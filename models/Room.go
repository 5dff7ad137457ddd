package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Room display statuses. The status is denormalized information for the
// front desk; whether a room can actually be booked for a date range is
// decided from the booking set, never from this flag.
const (
	RoomAvailable   = "Available"
	RoomBooked      = "Booked"
	RoomMaintenance = "Maintenance"
)

type Room struct {
	gorm.Model
	RoomNumber  string         `json:"roomNumber" gorm:"uniqueIndex;not null"`
	Name        string         `json:"name" gorm:"not null"`
	Type        string         `json:"type" gorm:"type:varchar(20)"` // Single, Double, Suite, Villa
	Price       int64          `json:"price" gorm:"not null"`        // nightly rate, whole currency units
	Capacity    int            `json:"capacity"`
	Amenities   datatypes.JSON `json:"amenities"`
	Description string         `json:"description" gorm:"type:text"`
	Images      datatypes.JSON `json:"images"`
	Status      string         `json:"status" gorm:"type:varchar(20);default:'Available';index"`
	Cleanliness string         `json:"cleanliness" gorm:"type:varchar(20);default:'Clean'"` // Clean, Dirty, Cleaning
	Rating      float32        `json:"rating"`

	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:RoomID"`
	Reviews  []Review  `json:"reviews,omitempty" gorm:"foreignKey:RoomID"`
}
