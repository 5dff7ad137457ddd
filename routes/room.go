package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"staysync-server/models"
	"staysync-server/storage"
	"staysync-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListRooms is public. Supports paging and an optional status filter so the
// front desk can pull up everything under maintenance in one call.
func ListRooms(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Room{})
	if status := ctx.URLParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if roomType := ctx.URLParam("type"); roomType != "" {
		query = query.Where("type = ?", roomType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to count rooms")
		return
	}

	var rooms []models.Room
	if err := query.Order("room_number ASC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&rooms).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to list rooms")
		return
	}

	utils.JSONPage(ctx, rooms, page, perPage, total)
}

func GetRoom(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var room models.Room
	if err := storage.DB.Preload("Reviews").First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
			return
		}
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to load room")
		return
	}
	ctx.JSON(room)
}

// RoomAvailability returns whether a room is free for a date range, without
// creating anything. The same overlap rule the booking path enforces.
func RoomAvailability(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	checkIn, err1 := time.Parse(time.RFC3339, ctx.URLParam("checkIn"))
	checkOut, err2 := time.Parse(time.RFC3339, ctx.URLParam("checkOut"))
	if err1 != nil || err2 != nil || !checkOut.After(checkIn) {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_date_range", "checkIn and checkOut must be RFC3339 timestamps with checkOut after checkIn")
		return
	}

	available, conflict, svcErr := bookingService.CheckAvailability(id, checkIn, checkOut)
	if svcErr != nil {
		writeBookingError(ctx, svcErr)
		return
	}

	resp := iris.Map{"roomID": id, "available": available}
	if conflict != nil {
		resp["bookedFrom"] = conflict.CheckIn
		resp["bookedUntil"] = conflict.CheckOut
	}
	ctx.JSON(resp)
}

type RoomInput struct {
	RoomNumber  string   `json:"roomNumber" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=Single Double Suite Villa"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	Capacity    int      `json:"capacity" validate:"gte=0"`
	Amenities   []string `json:"amenities"`
	Description string   `json:"description"`
}

func CreateRoom(ctx iris.Context) {
	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	room := models.Room{
		RoomNumber:  input.RoomNumber,
		Name:        input.Name,
		Type:        input.Type,
		Price:       input.Price,
		Capacity:    input.Capacity,
		Amenities:   marshalJSONColumn(input.Amenities),
		Description: input.Description,
		Status:      models.RoomAvailable,
	}
	if err := storage.DB.Create(&room).Error; err != nil {
		log.Printf("room: create failed: %v", err)
		utils.JSONError(ctx, http.StatusBadRequest, "room_create_failed", "could not create room; room number may already exist")
		return
	}

	utils.Audit(ctx, "room.create", "room", room.ID, nil, room)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(room)
}

func UpdateRoom(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
		return
	}
	before := room

	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	room.RoomNumber = input.RoomNumber
	room.Name = input.Name
	room.Type = input.Type
	room.Price = input.Price
	room.Capacity = input.Capacity
	room.Amenities = marshalJSONColumn(input.Amenities)
	room.Description = input.Description

	if err := storage.DB.Save(&room).Error; err != nil {
		log.Printf("room: update failed: %v", err)
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to update room")
		return
	}

	utils.Audit(ctx, "room.update", "room", room.ID, before, room)
	ctx.JSON(room)
}

type RoomStatusInput struct {
	Status      string `json:"status" validate:"omitempty,oneof=Available Booked Maintenance"`
	Cleanliness string `json:"cleanliness" validate:"omitempty,oneof=Clean Dirty Cleaning"`
}

// UpdateRoomStatus flips the front-desk status and housekeeping flags.
// Does not touch bookings.
func UpdateRoomStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
		return
	}
	before := room

	var input RoomStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if input.Status == "" && input.Cleanliness == "" {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "status or cleanliness is required")
		return
	}

	if input.Status != "" {
		room.Status = input.Status
	}
	if input.Cleanliness != "" {
		room.Cleanliness = input.Cleanliness
	}
	if err := storage.DB.Save(&room).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to update room status")
		return
	}

	utils.Audit(ctx, "room.status", "room", room.ID, before, room)
	ctx.JSON(room)
}

func DeleteRoom(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
		return
	}

	var activeCount int64
	storage.DB.Model(&models.Booking{}).
		Where("room_id = ? AND status IN ?", room.ID, []models.BookingStatus{models.BookingPending, models.BookingConfirmed}).
		Count(&activeCount)
	if activeCount > 0 {
		utils.JSONError(ctx, http.StatusConflict, "room_has_bookings", "room has active bookings and cannot be deleted")
		return
	}

	if err := storage.DB.Delete(&room).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to delete room")
		return
	}

	utils.Audit(ctx, "room.delete", "room", room.ID, room, nil)
	ctx.JSON(iris.Map{"ok": true})
}

type UploadRoomImageInput struct {
	Image string `json:"image" validate:"required"` // base64 data URI
}

func UploadRoomImage(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
		return
	}

	var input UploadRoomImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	uploaded := storage.UploadBase64Image(input.Image, fmt.Sprintf("room_%d_%d", room.ID, time.Now().Unix()))
	url := uploaded["url"]
	if url == "" {
		utils.JSONError(ctx, http.StatusInternalServerError, "upload_failed", "image upload failed")
		return
	}

	var images []string
	if len(room.Images) > 0 {
		if err := json.Unmarshal(room.Images, &images); err != nil {
			images = nil
		}
	}
	images = append(images, url)
	room.Images = marshalJSONColumn(images)

	if err := storage.DB.Save(&room).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to save room image")
		return
	}

	ctx.JSON(iris.Map{"url": url, "images": images})
}

type DeleteRoomImageInput struct {
	URL string `json:"url" validate:"required"`
}

func DeleteRoomImage(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid room id")
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "room_not_found", "room not found")
		return
	}

	var input DeleteRoomImageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var images []string
	if len(room.Images) > 0 {
		json.Unmarshal(room.Images, &images)
	}
	kept := images[:0]
	found := false
	for _, img := range images {
		if img == input.URL {
			found = true
			continue
		}
		kept = append(kept, img)
	}
	if !found {
		utils.JSONError(ctx, http.StatusNotFound, "image_not_found", "image is not attached to this room")
		return
	}

	storage.DeleteImage(input.URL)

	room.Images = marshalJSONColumn(kept)
	if err := storage.DB.Save(&room).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "failed to update room images")
		return
	}

	ctx.JSON(iris.Map{"ok": true, "images": kept})
}

func marshalJSONColumn(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
