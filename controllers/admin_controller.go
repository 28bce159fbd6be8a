package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"gorm.io/gorm"
)

// DashboardStats is the platform overview shown to admins
type DashboardStats struct {
	Users            int64            `json:"users"`
	Technicians      map[string]int64 `json:"technicians"`
	Appointments     map[string]int64 `json:"appointments"`
	Payments         map[string]int64 `json:"payments"`
	CompletedRevenue float64          `json:"completedRevenue"`
}

type statusCount struct {
	Status string
	Count  int64
}

// countByStatus runs one grouped count and always reports every known status
func countByStatus(db *gorm.DB, model interface{}, column string, known ...string) (map[string]int64, error) {
	var rows []statusCount
	err := db.Model(model).
		Select(column + " AS status, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(known))
	for _, k := range known {
		counts[k] = 0
	}
	for _, row := range rows {
		counts[row.Status] += row.Count
	}
	return counts, nil
}

// GetDashboardStats handles GET /api/v1/admin/dashboard/stats
func GetDashboardStats(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var stats DashboardStats
	if err := db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve dashboard statistics", err)
		return
	}

	var err error
	stats.Technicians, err = countByStatus(db, &models.Technician{}, "verification_status",
		string(models.VerificationPending), string(models.VerificationVerified), string(models.VerificationRejected))
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve dashboard statistics", err)
		return
	}

	stats.Appointments, err = countByStatus(db, &models.Appointment{}, "status",
		string(models.AppointmentPending), string(models.AppointmentConfirmed),
		string(models.AppointmentCompleted), string(models.AppointmentCancelled))
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve dashboard statistics", err)
		return
	}

	stats.Payments, err = countByStatus(db, &models.Payment{}, "status",
		string(models.PaymentPending), string(models.PaymentCompleted), string(models.PaymentFailed))
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve dashboard statistics", err)
		return
	}

	err = db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.CompletedRevenue).Error
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve dashboard statistics", err)
		return
	}

	respondSuccess(c, http.StatusOK, stats)
}

// ListPendingTechnicians handles GET /api/v1/admin/technicians/pending - technicians whose
// verification is still PENDING, newest first
func ListPendingTechnicians(c *gin.Context) {
	base := config.GetDB().Model(&models.Technician{}).
		Where("verification_status = ?", models.VerificationPending)

	page, err := utils.FindPage[models.Technician](base, pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Preload("Category").Order("created_at DESC").Order("id DESC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve pending technicians", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}
