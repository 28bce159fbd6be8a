package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
)

// SaveLocationRequest represents the request body for POST /api/v1/locations
type SaveLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Address   string   `json:"address" binding:"required,max=255"`
}

// NearestTechnicianRequest represents the request body for POST /api/v1/technicians/nearest
type NearestTechnicianRequest struct {
	Latitude    *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	ServiceType string   `json:"serviceType" binding:"max=100"`
}

// NearbyTechniciansQuery holds the query string of GET /api/v1/technicians/nearby
type NearbyTechniciansQuery struct {
	Latitude    *float64 `form:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude   *float64 `form:"longitude" binding:"required,gte=-180,lte=180"`
	RadiusKm    float64  `form:"radiusKm" binding:"omitempty,gt=0"`
	ServiceType string   `form:"serviceType" binding:"max=100"`
}

const noTechnicianMessage = "No technicians found within the search radius."

// SaveLocation handles POST /api/v1/locations - a technician publishes their position
func SaveLocation(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req SaveLocationRequest
	if !bindJSON(c, &req) {
		return
	}

	locator := services.NewTechnicianLocator(config.GetDB())
	location, err := locator.SaveLocation(c.Request.Context(), principal.ID, *req.Latitude, *req.Longitude, req.Address)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCoordinate):
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Latitude must be within [-90, 90] and longitude within [-180, 180]")
		case errors.Is(err, services.ErrNotFound):
			respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician not found")
		default:
			respondInternalError(c, "DATABASE_ERROR", "Failed to save location", err)
		}
		return
	}

	respondSuccess(c, http.StatusOK, location)
}

// NearestTechnician handles POST /api/v1/technicians/nearest - the closest available,
// verified technician within the configured radius
func NearestTechnician(c *gin.Context) {
	var req NearestTechnicianRequest
	if !bindJSON(c, &req) {
		return
	}

	locator := services.NewTechnicianLocator(config.GetDB())
	match, err := locator.Nearest(c.Request.Context(), services.MatchQuery{
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		ServiceType: req.ServiceType,
		RadiusKm:    config.GetConfig().MatchRadiusKm,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoTechnicianFound):
			respondError(c, http.StatusNotFound, "NO_TECHNICIAN_FOUND", noTechnicianMessage)
		case errors.Is(err, services.ErrInvalidCoordinate):
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Latitude must be within [-90, 90] and longitude within [-180, 180]")
		default:
			respondInternalError(c, "DATABASE_ERROR", "Failed to find nearest technician", err)
		}
		return
	}

	respondSuccess(c, http.StatusOK, match)
}

// NearbyTechnicians handles GET /api/v1/technicians/nearby - every match sorted by distance.
// radiusKm defaults to, and is capped at, the configured match radius.
func NearbyTechnicians(c *gin.Context) {
	var query NearbyTechniciansQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondValidationError(c, err)
		return
	}

	radius := config.GetConfig().MatchRadiusKm
	if query.RadiusKm > 0 && query.RadiusKm < radius {
		radius = query.RadiusKm
	}

	locator := services.NewTechnicianLocator(config.GetDB())
	matches, err := locator.Nearby(c.Request.Context(), services.MatchQuery{
		Latitude:    *query.Latitude,
		Longitude:   *query.Longitude,
		ServiceType: query.ServiceType,
		RadiusKm:    radius,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinate) {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Latitude must be within [-90, 90] and longitude within [-180, 180]")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to find nearby technicians", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"items":    matches,
		"total":    len(matches),
		"radiusKm": radius,
	})
}

// GetTechnicianLocation handles GET /api/v1/locations/technician/:technicianId
func GetTechnicianLocation(c *gin.Context) {
	technicianID, ok := idParam(c, "technicianId")
	if !ok {
		return
	}

	var location models.Location
	if err := config.GetDB().Where("technician_id = ?", technicianID).First(&location).Error; err != nil {
		respondLookupError(c, err, "LOCATION_NOT_FOUND", "Location not found")
		return
	}

	respondSuccess(c, http.StatusOK, location)
}
