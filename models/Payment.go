package models

import "gorm.io/gorm"

// Payment statuses track the settlement record itself; the booking's
// PaymentStatus is the guest-facing summary.
const (
	PaymentRecordPending   = "Pending"
	PaymentRecordSucceeded = "Succeeded"
	PaymentRecordFailed    = "Failed"
	PaymentRecordRefunded  = "Refunded"
)

type Payment struct {
	gorm.Model
	BookingID     uint   `json:"bookingID" gorm:"not null;index"`
	UserID        uint   `json:"userID" gorm:"not null;index"`
	Amount        int64  `json:"amount" gorm:"not null"`
	Currency      string `json:"currency" gorm:"type:varchar(8);default:'INR'"`
	Status        string `json:"status" gorm:"type:varchar(20);default:'Pending'"`
	TransactionID string `json:"transactionID" gorm:"size:64;uniqueIndex"`
	Method        string `json:"method" gorm:"size:32"`

	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
