package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
	"gorm.io/gorm/clause"
)

// RegisterDeviceRequest represents the request body for registering a push token
type RegisterDeviceRequest struct {
	Token string `json:"token" binding:"required,max=512"`
}

// SendNotificationRequest addresses a push either to one token or to every device of an owner
type SendNotificationRequest struct {
	Token     string            `json:"token" binding:"omitempty,max=512"`
	OwnerID   uint              `json:"ownerId"`
	OwnerRole models.Role       `json:"ownerRole" binding:"omitempty,oneof=USER TECHNICIAN ADMIN"`
	Title     string            `json:"title" binding:"required,max=200"`
	Body      string            `json:"body" binding:"required,max=2000"`
	Data      map[string]string `json:"data"`
}

// RegisterDevice handles POST /api/v1/notifications/register - upserts the caller's device token
func RegisterDevice(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	device := models.DeviceToken{
		Token:     req.Token,
		OwnerID:   principal.ID,
		OwnerRole: principal.Role,
	}
	db := config.GetDB()
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "owner_role", "updated_at"}),
	}).Create(&device).Error
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to register device token", err)
		return
	}
	if err := db.Where("token = ?", req.Token).First(&device).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to register device token", err)
		return
	}

	respondSuccess(c, http.StatusCreated, device)
}

// SendNotification handles POST /api/v1/notifications/send (admin only)
func SendNotification(c *gin.Context) {
	var req SendNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	var tokens []string
	switch {
	case req.Token != "":
		tokens = []string{req.Token}
	case req.OwnerID != 0 && req.OwnerRole != "":
		err := config.GetDB().Model(&models.DeviceToken{}).
			Where("owner_id = ? AND owner_role = ?", req.OwnerID, req.OwnerRole).
			Pluck("token", &tokens).Error
		if err != nil {
			respondInternalError(c, "DATABASE_ERROR", "Failed to look up device tokens", err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": gin.H{"token": "token or ownerId and ownerRole are required"},
			},
		})
		return
	}

	if len(tokens) == 0 {
		respondError(c, http.StatusNotFound, "NO_DEVICE_TOKENS", "No device tokens registered for this recipient")
		return
	}

	sent, err := services.GetNotifier().SendPush(c.Request.Context(), tokens, services.PushMessage{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		respondInternalError(c, "NOTIFICATION_ERROR", "Failed to send notification", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"sent":   sent,
		"tokens": len(tokens),
	})
}
