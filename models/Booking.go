package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingCompleted BookingStatus = "Completed"
)

type PaymentState string

const (
	PaymentUnpaid   PaymentState = "Unpaid"
	PaymentPaid     PaymentState = "Paid"
	PaymentRefunded PaymentState = "Refunded"
)

// Booking is a guest's stay in a single room. CheckIn/CheckOut form a
// half-open interval [CheckIn, CheckOut): back-to-back stays may share a
// boundary date. GuestID and RoomID never change after creation; changing
// dates means cancelling and booking again.
type Booking struct {
	gorm.Model
	GuestID       uint          `json:"guestID" gorm:"not null;index"`
	RoomID        uint          `json:"roomID" gorm:"not null;index:idx_bookings_room_status,priority:1"`
	CheckIn       time.Time     `json:"checkIn" gorm:"not null"`
	CheckOut      time.Time     `json:"checkOut" gorm:"not null"`
	TotalPrice    int64         `json:"totalPrice" gorm:"not null"`
	Status        BookingStatus `json:"status" gorm:"type:varchar(20);default:'Pending';index:idx_bookings_room_status,priority:2"`
	PaymentStatus PaymentState  `json:"paymentStatus" gorm:"type:varchar(20);default:'Unpaid'"`

	Room  *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Guest *User `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}

// IsActive reports whether the booking holds its room, i.e. counts toward
// the per-room no-overlap invariant.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
