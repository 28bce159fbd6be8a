package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterUserRequest represents the request body for creating a client account
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the request body for user and technician login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

// TokenResponse is returned by the login endpoints
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterUser handles POST /api/v1/users - creates an unverified client account
// and sends the email verification link
func RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	passwordHash, err := services.HashPassword(req.Password)
	if err != nil {
		respondInternalError(c, "INTERNAL_ERROR", "Failed to create user", err)
		return
	}
	rawToken, tokenHash, err := services.NewOpaqueToken()
	if err != nil {
		respondInternalError(c, "INTERNAL_ERROR", "Failed to create user", err)
		return
	}

	user := models.User{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          passwordHash,
		Role:                  models.RoleUser,
		VerificationTokenHash: &tokenHash,
	}

	db := config.GetDB()
	if err := db.Create(&user).Error; err != nil {
		if services.IsDuplicateKey(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this username or email already exists")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to create user", err)
		return
	}

	link := config.GetConfig().BaseURL + "/api/v1/verify-email?token=" + rawToken
	if err := services.GetNotifier().SendVerificationEmail(c.Request.Context(), user.Email, link); err != nil {
		logger.L().Warn("failed to send verification email", zap.Uint("userId", user.ID), zap.Error(err))
	}

	respondSuccess(c, http.StatusCreated, user)
}

// VerifyUserEmail handles GET /api/v1/verify-email?token= - consumes a verification token
func VerifyUserEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "MISSING_TOKEN", "Verification token is required")
		return
	}

	db := config.GetDB()
	var user models.User
	err := db.Where("verification_token_hash = ? AND is_verified = ?", services.HashOpaqueToken(token), false).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired verification token")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to verify email", err)
		return
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"is_verified":             true,
		"verification_token_hash": nil,
	}).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to verify email", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// LoginUser handles POST /api/v1/users/login - exchanges credentials for an access token
func LoginUser(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternalError(c, "DATABASE_ERROR", "Failed to log in", err)
			return
		}
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	if !services.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}
	if !user.IsVerified {
		respondError(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email to log in")
		return
	}

	token, expiresAt, err := services.NewAuthService(config.GetConfig()).IssueToken(user.ID, user.Role, user.Username)
	if err != nil {
		respondInternalError(c, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	respondSuccess(c, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if principal.Role == models.RoleTechnician {
		var technician models.Technician
		if err := db.Preload("Category").First(&technician, principal.ID).Error; err != nil {
			respondLookupError(c, err, "TECHNICIAN_NOT_FOUND", "Technician profile not found")
			return
		}
		respondSuccess(c, http.StatusOK, technician)
		return
	}

	var user models.User
	if err := db.First(&user, principal.ID).Error; err != nil {
		respondLookupError(c, err, "USER_NOT_FOUND", "User profile not found")
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users - paginated list of all users (admin only)
func ListUsers(c *gin.Context) {
	page, err := utils.FindPage[models.User](config.GetDB().Model(&models.User{}), pageParams(c), func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve users", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}

// GetUser handles GET /api/v1/users/:id - the user themself or an admin
func GetUser(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleUser, id) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only view your own profile")
		return
	}

	var user models.User
	if err := config.GetDB().First(&user, id).Error; err != nil {
		respondLookupError(c, err, "USER_NOT_FOUND", "User not found")
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// UpdateUser handles PUT /api/v1/users/:id - the user themself or an admin
func UpdateUser(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleUser, id) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only update your own profile")
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		respondLookupError(c, err, "USER_NOT_FOUND", "User not found")
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
			respondInternalError(c, "INTERNAL_ERROR", "Failed to update user", err)
			return
		}
		updates["password_hash"] = hash
	}

	// If no fields to update, return current user
	if len(updates) == 0 {
		respondSuccess(c, http.StatusOK, user)
		return
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if services.IsDuplicateKey(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this username or email already exists")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to update user", err)
		return
	}

	if err := db.First(&user, id).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to fetch updated user", err)
		return
	}

	respondSuccess(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:id (admin only)
func DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result := config.GetDB().Delete(&models.User{}, id)
	if result.Error != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to delete user", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}
