package main

import (
	"log"
	"os"
	"time"

	"staysync-server/routes"
	"staysync-server/services"
	"staysync-server/storage"
	"staysync-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	db := storage.InitializeDB()
	storage.InitializeRedis()
	storage.InitializeS3()

	routes.UseBookingService(services.NewBookingService(db))

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)
	app.Use(utils.RateLimit(100, 10*time.Minute))

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	// Same verification, but a missing or invalid token falls through to the
	// handler instead of a 401. Public pages that personalize when a guest is
	// signed in (review lists) use this one.
	optionalTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	optionalTokenVerifier.ErrorHandler = func(ctx iris.Context, err error) {
		ctx.Next()
	}
	optionalTokenVerifierMiddleware := optionalTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	rooms := app.Party("/api/rooms")
	{
		rooms.Get("/", routes.ListRooms)
		rooms.Get("/{id:uint}", routes.GetRoom)
		rooms.Get("/{id:uint}/availability", routes.RoomAvailability)
		rooms.Get("/{id:uint}/reviews", optionalTokenVerifierMiddleware, routes.ListRoomReviews)
		rooms.Post("/{id:uint}/reviews", accessTokenVerifierMiddleware, routes.CreateRoomReview)
		rooms.Post("/", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.CreateRoom)
		rooms.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.UpdateRoom)
		rooms.Patch("/{id:uint}/status", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.UpdateRoomStatus)
		rooms.Post("/{id:uint}/images", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.UploadRoomImage)
		rooms.Delete("/{id:uint}/images", accessTokenVerifierMiddleware, utils.StaffOnlyMiddleware, routes.DeleteRoomImage)
		rooms.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteRoom)
	}

	bookings := app.Party("/api/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		bookings.Post("/", routes.CreateBooking)
		bookings.Get("/", routes.ListBookings)
		bookings.Get("/{id:uint}", routes.GetBooking)
		bookings.Put("/{id:uint}", routes.UpdateBooking)
		bookings.Delete("/{id:uint}", utils.AdminOnlyMiddleware, routes.DeleteBooking)
	}

	payments := app.Party("/api/payments", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		payments.Post("/{bookingID:uint}", routes.ProcessPayment)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	log.Println("server starting on", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
