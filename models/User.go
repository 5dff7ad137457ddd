package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles. Staff and admin are hotel-side; everyone else is a guest.
const (
	RoleGuest = "guest"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Email      string         `json:"email" gorm:"uniqueIndex"`
	Password   string         `json:"-"`
	AvatarURL  string         `json:"avatarURL"`
	SavedRooms datatypes.JSON `json:"savedRooms"`
	Role       string         `json:"role" gorm:"type:varchar(20);default:guest;index"`

	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:GuestID"`
}
