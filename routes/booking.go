package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"staysync-server/models"
	"staysync-server/services"
	"staysync-server/storage"
	"staysync-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var bookingService *services.BookingService

// UseBookingService wires the shared booking service into the handlers.
// Called once from main after the database is up.
func UseBookingService(s *services.BookingService) {
	bookingService = s
}

func currentActor(ctx iris.Context) services.Actor {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	return services.Actor{ID: claims.ID, Role: claims.Role}
}

// writeBookingError maps the booking service's error taxonomy onto HTTP.
// Busy gets its own status so clients can tell "retry the same dates" from
// "someone else took them".
func writeBookingError(ctx iris.Context, err error) {
	var conflict *services.ConflictError
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, services.ErrBookingNotFound):
		utils.JSONError(ctx, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, services.ErrInvalidDateRange):
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_date_range", err.Error())
	case errors.Is(err, services.ErrCheckInInPast):
		utils.JSONError(ctx, http.StatusBadRequest, "check_in_in_past", err.Error())
	case errors.As(err, &conflict):
		utils.JSONError(ctx, http.StatusConflict, "booking_conflict", conflict.Error())
	case errors.Is(err, services.ErrForbiddenStatusChange):
		utils.JSONError(ctx, http.StatusForbidden, "forbidden_status_change", err.Error())
	case errors.Is(err, services.ErrNotAuthorized):
		utils.JSONError(ctx, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, services.ErrBusy):
		utils.JSONError(ctx, http.StatusServiceUnavailable, "busy", err.Error())
	default:
		log.Printf("booking: unexpected error: %v", err)
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

type CreateBookingInput struct {
	RoomID   uint      `json:"roomID" validate:"required"`
	CheckIn  time.Time `json:"checkIn" validate:"required"`
	CheckOut time.Time `json:"checkOut" validate:"required"`
}

func CreateBooking(ctx iris.Context) {
	actor := currentActor(ctx)

	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	booking, err := bookingService.Create(actor, services.CreateBookingInput{
		RoomID:   input.RoomID,
		CheckIn:  input.CheckIn,
		CheckOut: input.CheckOut,
	})
	if err != nil {
		writeBookingError(ctx, err)
		return
	}

	notifyBooking(booking.GuestID, "booking_created", "Booking Requested",
		fmt.Sprintf("Your booking for %s from %s to %s is awaiting payment",
			booking.Room.Name, booking.CheckIn.Format("Jan 2, 2006"), booking.CheckOut.Format("Jan 2, 2006")),
		booking.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

func ListBookings(ctx iris.Context) {
	bookings, err := bookingService.List(currentActor(ctx))
	if err != nil {
		writeBookingError(ctx, err)
		return
	}
	ctx.JSON(bookings)
}

func GetBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid booking id")
		return
	}

	booking, svcErr := bookingService.Get(currentActor(ctx), id)
	if svcErr != nil {
		writeBookingError(ctx, svcErr)
		return
	}
	ctx.JSON(booking)
}

type UpdateBookingInput struct {
	Status models.BookingStatus `json:"status" validate:"required"`
}

func UpdateBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid booking id")
		return
	}

	var input UpdateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	booking, svcErr := bookingService.Update(currentActor(ctx), id, services.UpdateBookingInput{
		Status: input.Status,
	})
	if svcErr != nil {
		writeBookingError(ctx, svcErr)
		return
	}

	notifyBooking(booking.GuestID, "booking_status", "Booking Status Updated",
		fmt.Sprintf("Your booking is now %s", booking.Status), booking.ID)

	ctx.JSON(booking)
}

func DeleteBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid booking id")
		return
	}

	if svcErr := bookingService.Delete(currentActor(ctx), id); svcErr != nil {
		writeBookingError(ctx, svcErr)
		return
	}

	utils.Audit(ctx, "booking.delete", "booking", id, nil, nil)
	ctx.JSON(iris.Map{"ok": true})
}

// notifyBooking writes an in-app notification row for the guest. Delivery
// (push, toasts) is the client's concern.
func notifyBooking(userID uint, kind, title, message string, bookingID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		RefID:   bookingID,
		RefType: "booking",
		IsRead:  false,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("booking: failed to write notification: %v", err)
	}
}
