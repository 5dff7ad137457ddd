package routes

import (
	"log"
	"net/http"
	"time"

	"staysync-server/models"
	"staysync-server/storage"
	"staysync-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// ListRoomReviews is public. When a token is present it also reports whether
// the caller can review the room, so the client can show or hide the form.
func ListRoomReviews(ctx iris.Context) {
	roomID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var reviews []models.Review
	if err := storage.DB.Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to load reviews")
		return
	}

	var average float64
	if len(reviews) > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Stars
		}
		average = float64(sum) / float64(len(reviews))
	}

	resp := iris.Map{
		"reviews":       reviews,
		"averageRating": average,
	}

	if claims, ok := jwt.Get(ctx).(*utils.AccessToken); ok && claims != nil {
		stay := reviewableStay(claims.ID, roomID)
		var hasExisting bool
		for _, r := range reviews {
			if r.UserID == claims.ID {
				hasExisting = true
				break
			}
		}
		resp["canReview"] = stay != nil && !hasExisting
		resp["hasExistingReview"] = hasExisting
	}

	ctx.JSON(resp)
}

type CreateReviewInput struct {
	Title string `json:"title" validate:"required,max=100"`
	Body  string `json:"body" validate:"required"`
	Stars int    `json:"stars" validate:"required,gte=1,lte=5"`
}

// CreateRoomReview requires a finished stay in the room: a Completed booking,
// or a Confirmed one whose check-out has passed. The resulting review is
// marked verified and the room's cached rating is refreshed.
func CreateRoomReview(ctx iris.Context) {
	roomID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	actor := currentActor(ctx)

	var room models.Room
	if err := storage.DB.First(&room, roomID).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
		return
	}

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	stay := reviewableStay(actor.ID, roomID)
	if stay == nil {
		utils.JSONError(ctx, http.StatusForbidden, "stay_required", "you can only review rooms you have stayed in")
		return
	}

	var existingCount int64
	storage.DB.Model(&models.Review{}).
		Where("user_id = ? AND room_id = ?", actor.ID, roomID).
		Count(&existingCount)
	if existingCount > 0 {
		utils.JSONError(ctx, http.StatusConflict, "review_exists", "you have already reviewed this room")
		return
	}

	review := models.Review{
		UserID:     actor.ID,
		RoomID:     roomID,
		BookingID:  &stay.ID,
		Title:      input.Title,
		Body:       input.Body,
		Stars:      input.Stars,
		IsVerified: true,
	}
	if err := storage.DB.Create(&review).Error; err != nil {
		log.Printf("review: create failed: %v", err)
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to create review")
		return
	}

	refreshRoomRating(&room)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(review)
}

// reviewableStay returns the user's most recent finished booking for the
// room, or nil if they have none.
func reviewableStay(userID, roomID uint) *models.Booking {
	var booking models.Booking
	err := storage.DB.
		Where("guest_id = ? AND room_id = ?", userID, roomID).
		Where("status = ? OR (status = ? AND check_out < ?)",
			models.BookingCompleted, models.BookingConfirmed, time.Now()).
		Order("check_out DESC").
		First(&booking).Error
	if err != nil {
		return nil
	}
	return &booking
}

func refreshRoomRating(room *models.Room) {
	var avg float64
	row := storage.DB.Model(&models.Review{}).
		Where("room_id = ?", room.ID).
		Select("AVG(stars)").Row()
	if err := row.Scan(&avg); err != nil {
		return
	}
	storage.DB.Model(room).Update("rating", float32(avg))
}
