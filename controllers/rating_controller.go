package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"gorm.io/gorm"
)

// CreateRatingRequest represents the request body for rating a technician
type CreateRatingRequest struct {
	TechnicianID uint   `json:"technicianId" binding:"required"`
	Score        int    `json:"score" binding:"required,min=1,max=5"`
	Comment      string `json:"comment" binding:"max=1000"`
}

// RatingsPage is a page of ratings plus the technician's overall average
type RatingsPage struct {
	utils.Page[models.Rating]
	AverageScore float64 `json:"averageScore"`
}

// CreateRating handles POST /api/v1/ratings - a client scores a technician from 1 to 5
func CreateRating(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	if err := db.First(&models.Technician{}, req.TechnicianID).Error; err != nil {
		respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}
	if err := db.First(&models.User{}, principal.ID).Error; err != nil {
		respondLookupError(c, err, "USER_NOT_FOUND", "User not found")
		return
	}

	rating := models.Rating{
		Score:        req.Score,
		Comment:      req.Comment,
		TechnicianID: req.TechnicianID,
		UserID:       principal.ID,
	}
	if err := db.Create(&rating).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to create rating", err)
		return
	}

	respondSuccess(c, http.StatusCreated, rating)
}

// ListTechnicianRatings handles GET /api/v1/ratings/technician/:technicianId
func ListTechnicianRatings(c *gin.Context) {
	technicianID, ok := idParam(c, "technicianId")
	if !ok {
		return
	}

	db := config.GetDB()
	if err := db.First(&models.Technician{}, technicianID).Error; err != nil {
		respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	base := db.Model(&models.Rating{}).Where("technician_id = ?", technicianID)
	page, err := utils.FindPage[models.Rating](base, pageParams(c), func(q *gorm.DB) *gorm.DB {
		return q.Preload("User").Order("created_at DESC").Order("id DESC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve ratings", err)
		return
	}

	var average float64
	err = db.Model(&models.Rating{}).
		Where("technician_id = ?", technicianID).
		Select("COALESCE(AVG(score), 0)").
		Scan(&average).Error
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve ratings", err)
		return
	}

	respondSuccess(c, http.StatusOK, RatingsPage{Page: page, AverageScore: average})
}
