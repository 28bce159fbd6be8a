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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = time.Hour

const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

// ForgotPasswordRequest represents the request body for POST /api/v1/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the request body for POST /api/v1/reset-password.
// The token may also be passed as a query parameter.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ForgotPassword handles POST /api/v1/forgot-password - issues a one hour reset token
func ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondSuccess(c, http.StatusOK, gin.H{"message": forgotPasswordMessage})
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to process password reset", err)
		return
	}

	rawToken, tokenHash, err := services.NewOpaqueToken()
	if err != nil {
		respondInternalError(c, "INTERNAL_ERROR", "Failed to process password reset", err)
		return
	}

	expiresAt := time.Now().Add(ResetTokenTTL)
	if err := db.Model(&user).Updates(map[string]interface{}{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": expiresAt,
	}).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to process password reset", err)
		return
	}

	link := config.GetConfig().BaseURL + "/api/v1/reset-password?token=" + rawToken
	if err := services.GetNotifier().SendPasswordReset(c.Request.Context(), user.Email, link); err != nil {
		logger.L().Warn("failed to send password reset email", zap.Uint("userId", user.ID), zap.Error(err))
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

// ResetPassword handles POST /api/v1/reset-password - consumes a reset token
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		respondError(c, http.StatusBadRequest, "MISSING_TOKEN", "Reset token is required")
		return
	}

	db := config.GetDB()
	var user models.User
	err := db.Where("reset_token_hash = ? AND reset_token_expires_at >= ?", services.HashOpaqueToken(req.Token), time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to reset password", err)
		return
	}

	passwordHash, err := services.HashPassword(req.NewPassword)
	if err != nil {
		respondInternalError(c, "INTERNAL_ERROR", "Failed to reset password", err)
		return
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"password_hash":          passwordHash,
		"reset_token_hash":       nil,
		"reset_token_expires_at": nil,
	}).Error; err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to reset password", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"message": "Password reset successfully"})
}
