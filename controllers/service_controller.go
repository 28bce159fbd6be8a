package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"gorm.io/gorm"
)

// CreateServiceRequest represents the request body for creating a service.
// TechnicianID is only honoured for admins; technicians always create their own.
type CreateServiceRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	TechnicianID uint    `json:"technicianId"`
}

// UpdateServiceRequest represents the request body for updating a service
type UpdateServiceRequest struct {
	Name  string   `json:"name" binding:"omitempty,max=100"`
	Price *float64 `json:"price" binding:"omitempty,gt=0"`
}

// ListServices handles GET /api/v1/services - paginated, optionally filtered by technicianId or name
func ListServices(c *gin.Context) {
	base := config.GetDB().Model(&models.Service{})
	if technicianID := c.Query("technicianId"); technicianID != "" {
		base = base.Where("technician_id = ?", technicianID)
	}
	if name := c.Query("name"); name != "" {
		base = base.Where("name = ?", name)
	}

	page, err := utils.FindPage[models.Service](base, pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve services", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}

// GetService handles GET /api/v1/services/:id
func GetService(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var service models.Service
	if err := config.GetDB().First(&service, id).Error; err != nil {
		respondLookupError(c, err, "SERVICE_NOT_FOUND", "Service not found")
		return
	}

	respondSuccess(c, http.StatusOK, service)
}

// CreateService handles POST /api/v1/services (technician or admin)
func CreateService(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	technicianID := principal.ID
	if principal.IsAdmin() {
		if req.TechnicianID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid request data",
					"details": gin.H{"technicianId": "is required"},
				},
			})
			return
		}
		technicianID = req.TechnicianID
	}

	db := config.GetDB()
	if err := db.First(&models.Technician{}, technicianID).Error; err != nil {
		respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	service := models.Service{
		Name:         req.Name,
		Price:        req.Price,
		TechnicianID: technicianID,
	}
	if err := db.Create(&service).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to create service", err)
		return
	}

	respondSuccess(c, http.StatusCreated, service)
}

// UpdateService handles PUT /api/v1/services/:id (owning technician or admin)
func UpdateService(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	service, ok := loadOwnedService(c, principal)
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if len(updates) == 0 {
		respondSuccess(c, http.StatusOK, service)
		return
	}

	db := config.GetDB()
	if err := db.Model(service).Updates(updates).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to update service", err)
		return
	}
	if err := db.First(service, service.ID).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to fetch updated service", err)
		return
	}

	respondSuccess(c, http.StatusOK, service)
}

// DeleteService handles DELETE /api/v1/services/:id (owning technician or admin)
func DeleteService(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	service, ok := loadOwnedService(c, principal)
	if !ok {
		return
	}

	if err := config.GetDB().Delete(service).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to delete service", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

func loadOwnedService(c *gin.Context, principal middleware.Principal) (*models.Service, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var service models.Service
	if err := config.GetDB().First(&service, id).Error; err != nil {
		respondLookupError(c, err, "SERVICE_NOT_FOUND", "Service not found")
		return nil, false
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleTechnician, service.TechnicianID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only manage your own services")
		return nil, false
	}
	return &service, true
}
