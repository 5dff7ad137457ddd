package routes

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"staysync-server/models"
	"staysync-server/storage"
	"staysync-server/utils"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
)

type ProcessPaymentInput struct {
	PaymentMethod string `json:"paymentMethod"`
}

// ProcessPayment captures payment for a booking and confirms it. The gateway
// call is mocked: a transaction row is written and the booking settled in the
// same request.
func ProcessPayment(ctx iris.Context) {
	bookingID, err := ctx.Params().GetUint("bookingID")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid booking id")
		return
	}

	actor := currentActor(ctx)

	booking, svcErr := bookingService.Get(actor, bookingID)
	if svcErr != nil {
		writeBookingError(ctx, svcErr)
		return
	}

	if booking.PaymentStatus == models.PaymentPaid {
		utils.JSONError(ctx, http.StatusBadRequest, "already_paid", "booking is already paid")
		return
	}
	if booking.Status == models.BookingCancelled || booking.Status == models.BookingCompleted {
		utils.JSONError(ctx, http.StatusBadRequest, "booking_closed", "booking is no longer payable")
		return
	}

	var input ProcessPaymentInput
	ctx.ReadJSON(&input) // body is optional
	method := input.PaymentMethod
	if method == "" {
		method = "Credit Card"
	}

	// SettlePayment re-checks the booking state under the room lock, so a
	// cancel racing this request cannot end up paid. The checks above only
	// produce friendlier error codes for the common cases.
	settled, svcErr := bookingService.SettlePayment(booking.ID)
	if svcErr != nil {
		writeBookingError(ctx, svcErr)
		return
	}

	payment := models.Payment{
		BookingID:     settled.ID,
		UserID:        settled.GuestID,
		Amount:        settled.TotalPrice,
		Currency:      "INR",
		Status:        models.PaymentRecordSucceeded,
		TransactionID: newTransactionID(),
		Method:        method,
	}
	if err := storage.DB.Create(&payment).Error; err != nil {
		log.Printf("payment: failed to record payment: %v", err)
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to record payment")
		return
	}

	notifyBooking(settled.GuestID, "payment_received", "Payment Successful",
		fmt.Sprintf("Payment of %d received, your booking is confirmed", payment.Amount),
		settled.ID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"payment": payment,
		"booking": settled,
	})
}

func newTransactionID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TXN-" + raw[:9]
}
