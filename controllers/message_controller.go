package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"gorm.io/gorm"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	AppointmentID uint   `json:"appointmentId" binding:"required"`
	Content       string `json:"content" binding:"required,max=2000"`
}

// SendMessage handles POST /api/v1/messages - sends a message on an appointment
func SendMessage(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	var appointment models.Appointment
	if err := db.First(&appointment, req.AppointmentID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve appointment", err)
			return
		}
		c.PureJSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "APPOINTMENT_NOT_FOUND",
				"message": "Appointment not found",
			},
		})
		return
	}

	// Only the client and the technician of the appointment can talk on it
	if !appointment.HasParticipant(principal.Role, principal.ID) {
		c.PureJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to message on this appointment",
			},
		})
		return
	}

	message := models.Message{
		AppointmentID: appointment.ID,
		SenderID:      principal.ID,
		SenderRole:    principal.Role,
		Content:       req.Content,
		SentAt:        time.Now().UTC(),
	}
	if err := db.Create(&message).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to create message", err)
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /api/v1/messages/appointment/:appointmentId - oldest first.
// Participants and admins may read.
func ListMessages(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	appointment, ok := loadParticipantAppointment(c, principal, "appointmentId")
	if !ok {
		return
	}

	base := config.GetDB().Model(&models.Message{}).Where("appointment_id = ?", appointment.ID)
	page, err := utils.FindPage[models.Message](base, pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Order("sent_at ASC").Order("id ASC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve messages", err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page,
	})
}
