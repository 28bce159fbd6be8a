package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// documentField is the multipart field carrying the technician's KYC document
const documentField = "document"

// RegisterTechnicianRequest represents the multipart form for technician sign-up
type RegisterTechnicianRequest struct {
	Username   string `form:"username" binding:"required,min=3,max=50"`
	Email      string `form:"email" binding:"required,email"`
	Password   string `form:"password" binding:"required,min=6"`
	CategoryID uint   `form:"categoryId" binding:"required"`
}

// UpdateTechnicianRequest accepts JSON or a multipart form (when a new document is attached)
type UpdateTechnicianRequest struct {
	Username   string `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Email      string `json:"email" form:"email" binding:"omitempty,email"`
	Password   string `json:"password" form:"password" binding:"omitempty,min=6"`
	CategoryID *uint  `json:"categoryId" form:"categoryId" binding:"omitempty,gt=0"`
}

// UpdateAvailabilityRequest represents the request body for PUT /technicians/:id/availability
type UpdateAvailabilityRequest struct {
	AvailabilityStatus models.AvailabilityStatus `json:"availabilityStatus" binding:"required,oneof=AVAILABLE BUSY OFFLINE"`
}

// ListTechnicians handles GET /api/v1/technicians - paginated technicians with their category.
// Optional filters: categoryId, availabilityStatus, verificationStatus.
func ListTechnicians(c *gin.Context) {
	base := config.GetDB().Model(&models.Technician{})
	if categoryID := c.Query("categoryId"); categoryID != "" {
		base = base.Where("category_id = ?", categoryID)
	}
	if status := c.Query("availabilityStatus"); status != "" {
		base = base.Where("availability_status = ?", status)
	}
	if status := c.Query("verificationStatus"); status != "" {
		base = base.Where("verification_status = ?", status)
	}

	page, err := utils.FindPage[models.Technician](base, pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Preload("Category").Order("id ASC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve technicians", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}

// GetTechnician handles GET /api/v1/technicians/:id. The technician themself and admins
// also get a short-lived link to the uploaded document.
func GetTechnician(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var technician models.Technician
	err := config.GetDB().
		Preload("Category").
		Preload("Services").
		Preload("Location").
		First(&technician, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician not found")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve technician", err)
		return
	}

	if principal, err := middleware.GetPrincipal(c); err == nil &&
		(principal.IsAdmin() || principal.Is(models.RoleTechnician, technician.ID)) {
		attachDocumentURL(c.Request.Context(), &technician)
	}

	respondSuccess(c, http.StatusOK, technician)
}

// RegisterTechnician handles POST /api/v1/technicians - multipart sign-up with a required document
func RegisterTechnician(c *gin.Context) {
	var req RegisterTechnicianRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	fileHeader, err := c.FormFile(documentField)
	if err != nil {
		respondError(c, http.StatusBadRequest, "DOCUMENT_REQUIRED", "Document upload is required")
		return
	}

	db := config.GetDB()
	var category models.Category
	if err := db.First(&category, req.CategoryID).Error; err != nil {
		respondLookupError(c, err, "CATEGORY_NOT_FOUND", "Category not found")
		return
	}

	documentKey, ok := uploadDocument(c, fileHeader)
	if !ok {
		return
	}

	passwordHash, err := services.HashPassword(req.Password)
	if err != nil {
		discardDocument(c.Request.Context(), documentKey)
		respondInternalError(c, "INTERNAL_ERROR", "Failed to register technician", err)
		return
	}
	rawToken, tokenHash, err := services.NewOpaqueToken()
	if err != nil {
		discardDocument(c.Request.Context(), documentKey)
		respondInternalError(c, "INTERNAL_ERROR", "Failed to register technician", err)
		return
	}

	technician := models.Technician{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          passwordHash,
		CategoryID:            &category.ID,
		Documents:             &documentKey,
		VerificationStatus:    models.VerificationPending,
		FirebaseKycStatus:     models.KycPending,
		AvailabilityStatus:    models.Available,
		VerificationTokenHash: &tokenHash,
	}
	if err := db.Create(&technician).Error; err != nil {
		discardDocument(c.Request.Context(), documentKey)
		if services.IsDuplicateKey(err) {
			respondError(c, http.StatusConflict, "TECHNICIAN_EXISTS", "A technician with this username or email already exists")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to register technician", err)
		return
	}
	technician.Category = &category

	link := config.GetConfig().BaseURL + "/api/v1/technicians/verify-email?token=" + rawToken
	if err := services.GetNotifier().SendVerificationEmail(c.Request.Context(), technician.Email, link); err != nil {
		logger.L().Warn("failed to send verification email", zap.Uint("technicianId", technician.ID), zap.Error(err))
	}

	respondSuccess(c, http.StatusCreated, technician)
}

// VerifyTechnicianEmail handles GET /api/v1/technicians/verify-email?token=.
// It confirms the email address only; verificationStatus is owned by KYC.
func VerifyTechnicianEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "MISSING_TOKEN", "Verification token is required")
		return
	}

	result := config.GetDB().Model(&models.Technician{}).
		Where("verification_token_hash = ? AND email_verified = ?", services.HashOpaqueToken(token), false).
		Updates(map[string]interface{}{
			"email_verified":          true,
			"verification_token_hash": nil,
		})
	if result.Error != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to verify email", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired verification token")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// LoginTechnician handles POST /api/v1/technicians/login
func LoginTechnician(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	var technician models.Technician
	if err := config.GetDB().Where("username = ?", req.Username).First(&technician).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternalError(c, "DATABASE_ERROR", "Failed to log in", err)
			return
		}
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	if !services.CheckPassword(technician.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}
	if !technician.EmailVerified {
		respondError(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email to log in")
		return
	}

	token, expiresAt, err := services.NewAuthService(config.GetConfig()).
		IssueToken(technician.ID, models.RoleTechnician, technician.Username)
	if err != nil {
		respondInternalError(c, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	respondSuccess(c, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// UpdateTechnician handles PUT /api/v1/technicians/:id - the technician themself or an admin.
// Attaching a new document sends the technician back through KYC.
func UpdateTechnician(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleTechnician, id) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only update your own profile")
		return
	}

	var req UpdateTechnicianRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var technician models.Technician
	if err := db.First(&technician, id).Error; err != nil {
		respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	updates := make(map[string]interface{})
	if req.Username != "" {
		updates["username"] = req.Username
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Password != "" {
		hash, err := services.HashPassword(req.Password)
		if err != nil {
			respondInternalError(c, "INTERNAL_ERROR", "Failed to update technician", err)
			return
		}
		updates["password_hash"] = hash
	}
	if req.CategoryID != nil {
		if err := db.First(&models.Category{}, *req.CategoryID).Error; err != nil {
			respondLookupError(c, err, "CATEGORY_NOT_FOUND", "Category not found")
			return
		}
		updates["category_id"] = *req.CategoryID
	}

	var newDocumentKey string
	if fileHeader, err := c.FormFile(documentField); err == nil {
		key, ok := uploadDocument(c, fileHeader)
		if !ok {
			return
		}
		newDocumentKey = key
		updates["documents"] = key
		updates["verification_status"] = models.VerificationPending
		updates["firebase_kyc_status"] = models.KycPending
		updates["firebase_kyc_data"] = datatypes.NewJSONType(models.KycData{})
		updates["version"] = gorm.Expr("version + 1")
	}

	if len(updates) == 0 {
		respondSuccess(c, http.StatusOK, technician)
		return
	}

	if err := db.Model(&technician).Updates(updates).Error; err != nil {
		discardDocument(c.Request.Context(), newDocumentKey)
		if services.IsDuplicateKey(err) {
			respondError(c, http.StatusConflict, "TECHNICIAN_EXISTS", "A technician with this username or email already exists")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to update technician", err)
		return
	}

	if newDocumentKey != "" && technician.Documents != nil {
		discardDocument(c.Request.Context(), *technician.Documents)
	}

	if err := db.Preload("Category").First(&technician, id).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to fetch updated technician", err)
		return
	}

	respondSuccess(c, http.StatusOK, technician)
}

// UpdateAvailability handles PUT /api/v1/technicians/:id/availability
func UpdateAvailability(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleTechnician, id) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only change your own availability")
		return
	}

	var req UpdateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	result := db.Model(&models.Technician{}).Where("id = ?", id).
		Update("availability_status", req.AvailabilityStatus)
	if result.Error != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to update availability", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	var technician models.Technician
	if err := db.First(&technician, id).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to fetch updated technician", err)
		return
	}

	respondSuccess(c, http.StatusOK, technician)
}

// DeleteTechnician handles DELETE /api/v1/technicians/:id (admin only)
func DeleteTechnician(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var technician models.Technician
	if err := db.First(&technician, id).Error; err != nil {
		respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	if err := db.Delete(&technician).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to delete technician", err)
		return
	}
	if technician.Documents != nil {
		discardDocument(c.Request.Context(), *technician.Documents)
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "Technician deleted successfully"})
}

// uploadDocument stores a KYC document and answers the request itself on failure
func uploadDocument(c *gin.Context, fileHeader *multipart.FileHeader) (string, bool) {
	if err := utils.ValidateDocumentFile(fileHeader); err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return "", false
		}
		respondValidationError(c, err)
		return "", false
	}

	documents := services.GetDocumentService()
	if documents == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Document storage is not configured")
		return "", false
	}

	key, err := documents.UploadDocument(c.Request.Context(), fileHeader)
	if err != nil {
		respondInternalError(c, "UPLOAD_FAILED", "Failed to upload document", err)
		return "", false
	}
	return key, true
}

// discardDocument removes a stored document; failures are only logged
func discardDocument(ctx context.Context, key string) {
	documents := services.GetDocumentService()
	if key == "" || documents == nil {
		return
	}
	if err := documents.DeleteDocument(ctx, key); err != nil {
		logger.L().Warn("failed to delete document", zap.String("key", key), zap.Error(err))
	}
}

func attachDocumentURL(ctx context.Context, technician *models.Technician) {
	documents := services.GetDocumentService()
	if technician.Documents == nil || documents == nil {
		return
	}
	url, err := documents.GetDocumentURL(ctx, *technician.Documents)
	if err != nil {
		logger.L().Warn("failed to presign document", zap.Uint("technicianId", technician.ID), zap.Error(err))
		return
	}
	technician.DocumentURL = &url
}
