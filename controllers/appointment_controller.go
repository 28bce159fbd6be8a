package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"gorm.io/gorm"
)

// CreateAppointmentRequest represents the request body for booking a technician
type CreateAppointmentRequest struct {
	TechnicianID    uint      `json:"technicianId" binding:"required"`
	ServiceType     string    `json:"serviceType" binding:"required,max=100"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
}

// UpdateAppointmentRequest reschedules an appointment or moves it through its lifecycle
type UpdateAppointmentRequest struct {
	ServiceType     string                   `json:"serviceType" binding:"omitempty,max=100"`
	AppointmentDate *time.Time               `json:"appointmentDate"`
	Status          models.AppointmentStatus `json:"status" binding:"omitempty,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

// CreateAppointment handles POST /api/v1/appointments - clients book a technician
func CreateAppointment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	if err := db.First(&models.Technician{}, req.TechnicianID).Error; err != nil {
		respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	appointment := models.Appointment{
		ClientID:        principal.ID,
		TechnicianID:    req.TechnicianID,
		ServiceType:     req.ServiceType,
		AppointmentDate: req.AppointmentDate,
		Status:          models.AppointmentPending,
	}
	if err := db.Create(&appointment).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to create appointment", err)
		return
	}

	respondSuccess(c, http.StatusCreated, appointment)
}

// ListClientAppointments handles GET /api/v1/appointments/client/:clientId
func ListClientAppointments(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	clientID, ok := idParam(c, "clientId")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleUser, clientID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only view your own appointments")
		return
	}

	base := config.GetDB().Model(&models.Appointment{}).Where("client_id = ?", clientID)
	page, err := utils.FindPage[models.Appointment](base, pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Preload("Technician").Order("appointment_date ASC").Order("id ASC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve appointments", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}

// ListTechnicianAppointments handles GET /api/v1/appointments/technician/:technicianId
func ListTechnicianAppointments(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	technicianID, ok := idParam(c, "technicianId")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleTechnician, technicianID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only view your own appointments")
		return
	}

	base := config.GetDB().Model(&models.Appointment{}).Where("technician_id = ?", technicianID)
	page, err := utils.FindPage[models.Appointment](base, pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Preload("Client").Order("appointment_date ASC").Order("id ASC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve appointments", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}

// UpdateAppointment handles PUT /api/v1/appointments/:id - participants or admins
func UpdateAppointment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	appointment, ok := loadParticipantAppointment(c, principal, "id")
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	switch appointment.Status {
	case models.AppointmentCancelled:
		respondError(c, http.StatusConflict, "APPOINTMENT_CANCELLED", "Cancelled appointments cannot be changed")
		return
	case models.AppointmentCompleted:
		respondError(c, http.StatusConflict, "APPOINTMENT_COMPLETED", "Completed appointments cannot be changed")
		return
	}

	updates := make(map[string]interface{})
	if req.ServiceType != "" {
		updates["service_type"] = req.ServiceType
	}
	if req.AppointmentDate != nil {
		updates["appointment_date"] = *req.AppointmentDate
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if len(updates) == 0 {
		respondSuccess(c, http.StatusOK, appointment)
		return
	}

	db := config.GetDB()
	if err := db.Model(appointment).Updates(updates).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to update appointment", err)
		return
	}
	if err := db.First(appointment, appointment.ID).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to fetch updated appointment", err)
		return
	}

	respondSuccess(c, http.StatusOK, appointment)
}

// CancelAppointment handles DELETE /api/v1/appointments/:id - marks the appointment CANCELLED
func CancelAppointment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	appointment, ok := loadParticipantAppointment(c, principal, "id")
	if !ok {
		return
	}

	if appointment.Status == models.AppointmentCompleted {
		respondError(c, http.StatusConflict, "APPOINTMENT_COMPLETED", "Completed appointments cannot be cancelled")
		return
	}

	db := config.GetDB()
	if err := db.Model(appointment).Update("status", models.AppointmentCancelled).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to cancel appointment", err)
		return
	}
	appointment.Status = models.AppointmentCancelled

	respondSuccess(c, http.StatusOK, appointment)
}

// loadParticipantAppointment fetches the appointment named by the path parameter and
// checks the caller is its client, its technician or an admin
func loadParticipantAppointment(c *gin.Context, principal middleware.Principal, param string) (*models.Appointment, bool) {
	id, ok := idParam(c, param)
	if !ok {
		return nil, false
	}

	var appointment models.Appointment
	if err := config.GetDB().First(&appointment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "Appointment not found")
			return nil, false
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve appointment", err)
		return nil, false
	}

	if !principal.IsAdmin() && !appointment.HasParticipant(principal.Role, principal.ID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this appointment")
		return nil, false
	}
	return &appointment, true
}
