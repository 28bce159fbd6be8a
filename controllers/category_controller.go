package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
)

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// ListCategories handles GET /api/v1/categories
func ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := config.GetDB().Order("name ASC").Find(&categories).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve categories", err)
		return
	}

	respondSuccess(c, http.StatusOK, categories)
}

// CreateCategory handles POST /api/v1/categories (admin only)
func CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": gin.H{"name": "is required"},
			},
		})
		return
	}

	category := models.Category{Name: name}
	if err := config.GetDB().Create(&category).Error; err != nil {
		if services.IsDuplicateKey(err) {
			respondError(c, http.StatusConflict, "CATEGORY_EXISTS", "Category already exists")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to create category", err)
		return
	}

	respondSuccess(c, http.StatusCreated, category)
}
