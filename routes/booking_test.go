package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"staysync-server/models"
	"staysync-server/services"
	"staysync-server/storage"
	"staysync-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// buildTestApp wires the booking and payment routes the way main does,
// backed by an in-memory database.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Room{}, &models.Booking{},
		&models.Payment{}, &models.Review{}, &models.Notification{}, &models.AuditLog{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	storage.DB = db
	UseBookingService(services.NewBookingService(db))

	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	optionalTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	optionalTokenVerifier.ErrorHandler = func(ctx iris.Context, err error) {
		ctx.Next()
	}
	optionalTokenVerifierMiddleware := optionalTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	rooms := app.Party("/api/rooms")
	{
		rooms.Get("/{id:uint}/reviews", optionalTokenVerifierMiddleware, ListRoomReviews)
		rooms.Post("/{id:uint}/reviews", accessTokenVerifierMiddleware, CreateRoomReview)
	}

	bookings := app.Party("/api/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		bookings.Post("/", CreateBooking)
		bookings.Get("/", ListBookings)
		bookings.Get("/{id:uint}", GetBooking)
		bookings.Put("/{id:uint}", UpdateBooking)
		bookings.Delete("/{id:uint}", utils.AdminOnlyMiddleware, DeleteBooking)
	}

	payments := app.Party("/api/payments", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		payments.Post("/{bookingID:uint}", ProcessPayment)
	}

	require.NoError(t, app.Build())
	return app
}

func signTestToken(t *testing.T, id uint, role string) string {
	t.Helper()
	token, err := utils.CreateAccessToken(id, role)
	require.NoError(t, err)
	return token
}

func seedTestRoom(t *testing.T, price int64) *models.Room {
	t.Helper()
	room := models.Room{RoomNumber: "101", Name: "Deluxe Double", Type: "Double", Price: price, Capacity: 2, Status: models.RoomAvailable}
	require.NoError(t, storage.DB.Create(&room).Error)
	return &room
}

func doJSON(app *iris.Application, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func bookingDates(from, nights int) (time.Time, time.Time) {
	checkIn := time.Now().UTC().AddDate(0, 0, from).Truncate(24 * time.Hour)
	return checkIn, checkIn.AddDate(0, 0, nights)
}

func TestCreateBookingEndpoint(t *testing.T) {
	app := buildTestApp(t)
	room := seedTestRoom(t, 2000)
	guestToken := signTestToken(t, 1, "guest")

	checkIn, checkOut := bookingDates(1, 3)

	resp := doJSON(app, http.MethodPost, "/api/bookings", guestToken, iris.Map{
		"roomID":   room.ID,
		"checkIn":  checkIn,
		"checkOut": checkOut,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var booking models.Booking
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, models.PaymentUnpaid, booking.PaymentStatus)
	assert.EqualValues(t, 6000, booking.TotalPrice)
	assert.EqualValues(t, 1, booking.GuestID)

	var notifications int64
	storage.DB.Model(&models.Notification{}).Where("user_id = ?", 1).Count(&notifications)
	assert.EqualValues(t, 1, notifications)
}

func TestCreateBookingEndpointRequiresToken(t *testing.T) {
	app := buildTestApp(t)
	room := seedTestRoom(t, 2000)
	checkIn, checkOut := bookingDates(1, 2)

	resp := doJSON(app, http.MethodPost, "/api/bookings", "", iris.Map{
		"roomID":   room.ID,
		"checkIn":  checkIn,
		"checkOut": checkOut,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateBookingEndpointConflict(t *testing.T) {
	app := buildTestApp(t)
	room := seedTestRoom(t, 2000)
	guestToken := signTestToken(t, 1, "guest")
	checkIn, checkOut := bookingDates(5, 3)

	resp := doJSON(app, http.MethodPost, "/api/bookings", guestToken, iris.Map{
		"roomID": room.ID, "checkIn": checkIn, "checkOut": checkOut,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(app, http.MethodPost, "/api/bookings", guestToken, iris.Map{
		"roomID": room.ID, "checkIn": checkIn.AddDate(0, 0, 1), "checkOut": checkOut.AddDate(0, 0, 1),
	})
	require.Equal(t, http.StatusConflict, resp.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "booking_conflict", body["error"])
}

func TestUpdateBookingEndpointRoles(t *testing.T) {
	app := buildTestApp(t)
	room := seedTestRoom(t, 2000)
	guestToken := signTestToken(t, 1, "guest")
	staffToken := signTestToken(t, 2, "staff")
	checkIn, checkOut := bookingDates(5, 3)

	resp := doJSON(app, http.MethodPost, "/api/bookings", guestToken, iris.Map{
		"roomID": room.ID, "checkIn": checkIn, "checkOut": checkOut,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))

	// guest may not confirm their own booking
	resp = doJSON(app, http.MethodPut, fmt.Sprintf("/api/bookings/%d", booking.ID), guestToken, iris.Map{"status": "Confirmed"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// staff may
	resp = doJSON(app, http.MethodPut, fmt.Sprintf("/api/bookings/%d", booking.ID), staffToken, iris.Map{"status": "Confirmed"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// guest can still cancel
	resp = doJSON(app, http.MethodPut, fmt.Sprintf("/api/bookings/%d", booking.ID), guestToken, iris.Map{"status": "Cancelled"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteBookingEndpointAdminOnly(t *testing.T) {
	app := buildTestApp(t)
	room := seedTestRoom(t, 2000)
	guestToken := signTestToken(t, 1, "guest")
	adminToken := signTestToken(t, 3, "admin")
	checkIn, checkOut := bookingDates(5, 2)

	resp := doJSON(app, http.MethodPost, "/api/bookings", guestToken, iris.Map{
		"roomID": room.ID, "checkIn": checkIn, "checkOut": checkOut,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))

	resp = doJSON(app, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", booking.ID), guestToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doJSON(app, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", booking.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestProcessPaymentEndpoint(t *testing.T) {
	app := buildTestApp(t)
	room := seedTestRoom(t, 2000)
	guestToken := signTestToken(t, 1, "guest")
	checkIn, checkOut := bookingDates(5, 2)

	resp := doJSON(app, http.MethodPost, "/api/bookings", guestToken, iris.Map{
		"roomID": room.ID, "checkIn": checkIn, "checkOut": checkOut,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))

	resp = doJSON(app, http.MethodPost, fmt.Sprintf("/api/payments/%d", booking.ID), guestToken, iris.Map{"paymentMethod": "UPI"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var result struct {
		Payment models.Payment `json:"payment"`
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, models.BookingConfirmed, result.Booking.Status)
	assert.Equal(t, models.PaymentPaid, result.Booking.PaymentStatus)
	assert.Equal(t, "UPI", result.Payment.Method)
	assert.Equal(t, "INR", result.Payment.Currency)
	assert.EqualValues(t, booking.TotalPrice, result.Payment.Amount)
	assert.Regexp(t, `^TXN-[0-9A-F]{9}$`, result.Payment.TransactionID)

	// paying again is rejected
	resp = doJSON(app, http.MethodPost, fmt.Sprintf("/api/payments/%d", booking.ID), guestToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
