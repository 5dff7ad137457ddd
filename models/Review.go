package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	UserID    uint  `json:"userID" gorm:"not null;index"`
	RoomID    uint  `json:"roomID" gorm:"not null;index"`
	BookingID *uint `json:"bookingID" gorm:"index"` // the stay this review is for

	User    User     `json:"user" gorm:"foreignKey:UserID"`
	Room    Room     `json:"room" gorm:"foreignKey:RoomID"`
	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`

	Title      string `json:"title"`
	Body       string `json:"body" gorm:"type:text"`
	Stars      int    `json:"stars" gorm:"not null;check:stars >= 1 AND stars <= 5"`
	IsVerified bool   `json:"isVerified" gorm:"default:false"` // linked to a completed stay
}
