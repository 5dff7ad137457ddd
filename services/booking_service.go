package services

import (
	"errors"
	"time"

	"staysync-server/models"

	"gorm.io/gorm"
)

// lockWait bounds how long an operation waits for a room's critical section
// before giving up with ErrBusy.
const lockWait = 2 * time.Second

// BookingService owns the booking lifecycle: it validates requested stays,
// guarantees no two active bookings overlap on a room, prices the stay and
// drives status transitions. HTTP handlers stay thin around it.
type BookingService struct {
	db    *gorm.DB
	locks *roomLocks
	now   func() time.Time
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{
		db:    db,
		locks: newRoomLocks(),
		now:   time.Now,
	}
}

type CreateBookingInput struct {
	RoomID   uint
	CheckIn  time.Time
	CheckOut time.Time
}

type UpdateBookingInput struct {
	Status models.BookingStatus
}

// statusTransitions is the booking state machine. Cancelled and Completed
// are terminal.
var statusTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCompleted, models.BookingCancelled},
}

func transitionAllowed(from, to models.BookingStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Create validates the requested stay, checks the room is free for the
// range and persists a Pending/Unpaid booking priced from the room's
// nightly rate. The conflict check and the insert run under the room's
// lock; nothing is written on any failure path.
func (s *BookingService) Create(actor Actor, input CreateBookingInput) (*models.Booking, error) {
	var room models.Room
	if err := s.db.First(&room, input.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if err := validateStayDates(input.CheckIn, input.CheckOut, s.now()); err != nil {
		return nil, err
	}

	if !s.locks.acquire(room.ID, lockWait) {
		return nil, ErrBusy
	}
	defer s.locks.release(room.ID)

	existing, err := findConflict(s.db, room.ID, input.CheckIn, input.CheckOut, 0)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{
			BookingID: existing.ID,
			CheckIn:   existing.CheckIn,
			CheckOut:  existing.CheckOut,
		}
	}

	booking := models.Booking{
		GuestID:       actor.ID, // always the acting user, never client input
		RoomID:        room.ID,
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
		TotalPrice:    StayPrice(&room, input.CheckIn, input.CheckOut),
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
	}
	if err := s.db.Create(&booking).Error; err != nil {
		return nil, err
	}

	booking.Room = &room
	return &booking, nil
}

// List returns the bookings the actor may see: guests their own, staff and
// admin everyone's with guest summaries joined in.
func (s *BookingService) List(actor Actor) ([]models.Booking, error) {
	q := s.db.Preload("Room").Order("created_at DESC")
	if actor.Privileged() {
		q = q.Preload("Guest")
	} else {
		q = q.Where("guest_id = ?", actor.ID)
	}

	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *BookingService) Get(actor Actor, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Preload("Room").Preload("Guest").First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !Can(actor, ActionRead, &booking) {
		return nil, ErrNotAuthorized
	}
	return &booking, nil
}

// Update patches a booking's status. Dates are immutable after creation, so
// no conflict re-check is needed; every status change still takes the room
// lock because it mutates the active set other creates are scanning.
// Re-requesting the current status is an accepted no-op, which makes guest
// cancels retry-safe.
//
// Ownership and role checks run on the first read: GuestID and RoomID never
// change, so they cannot go stale. The status-dependent checks run against a
// second read taken under the lock, where a racing update could otherwise
// have moved the booking past a terminal state between check and write.
func (s *BookingService) Update(actor Actor, id uint, input UpdateBookingInput) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !Can(actor, ActionUpdate, &booking) {
		return nil, ErrNotAuthorized
	}
	if err := validateStatusPatch(actor, input.Status); err != nil {
		return nil, err
	}

	if !s.locks.acquire(booking.RoomID, lockWait) {
		return nil, ErrBusy
	}
	defer s.locks.release(booking.RoomID)

	if err := s.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if input.Status == booking.Status {
		return &booking, nil
	}
	if !transitionAllowed(booking.Status, input.Status) {
		return nil, ErrInvalidTransition
	}

	booking.Status = input.Status
	if err := s.db.Save(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// Delete hard-removes a booking record. Admin-only; used for data cleanup,
// not part of the guest-facing flow.
func (s *BookingService) Delete(actor Actor, id uint) error {
	if !Can(actor, ActionDelete, nil) {
		return ErrNotAuthorized
	}

	var booking models.Booking
	if err := s.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return s.db.Unscoped().Delete(&booking).Error
}

// CheckAvailability answers whether a room is free for a date range without
// reserving anything. Read-only, so it skips the room lock; the answer is
// advisory and Create remains the authority.
func (s *BookingService) CheckAvailability(roomID uint, checkIn, checkOut time.Time) (bool, *models.Booking, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, ErrRoomNotFound
		}
		return false, nil, err
	}

	existing, err := findConflict(s.db, roomID, checkIn, checkOut, 0)
	if err != nil {
		return false, nil, err
	}
	return existing == nil, existing, nil
}

// SettlePayment is invoked by the payment collaborator after it records a
// successful charge: the booking becomes Confirmed and Paid in one write.
// Calling it again is a no-op. The state check runs under the room lock so a
// settlement racing a cancel cannot revive a booking out of a terminal state.
func (s *BookingService) SettlePayment(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !s.locks.acquire(booking.RoomID, lockWait) {
		return nil, ErrBusy
	}
	defer s.locks.release(booking.RoomID)

	if err := s.db.Preload("Room").First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status == models.BookingConfirmed && booking.PaymentStatus == models.PaymentPaid {
		return &booking, nil
	}
	if booking.Status == models.BookingCancelled || booking.Status == models.BookingCompleted {
		return nil, ErrInvalidTransition
	}

	booking.Status = models.BookingConfirmed
	booking.PaymentStatus = models.PaymentPaid
	if err := s.db.Save(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}
