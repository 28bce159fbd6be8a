package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
)

// FirebaseKYCRequest is the upstream verification result posted for a technician
type FirebaseKYCRequest struct {
	FirebaseKycStatus models.FirebaseKycStatus `json:"firebaseKycStatus" binding:"required,oneof=FIREBASE_VERIFIED FIREBASE_REJECTED FIREBASE_ERROR ADMIN_REVIEW_REQUIRED"`
	FirebaseKycData   models.KycData           `json:"firebaseKycData"`
	DocumentURLs      []string                 `json:"documentUrls" binding:"omitempty,dive,url"`
	ConfidenceScore   *float64                 `json:"confidenceScore" binding:"omitempty,gte=0,lte=1"`
}

// FinalVerificationRequest is an admin's decision on a technician
type FinalVerificationRequest struct {
	Decision   string `json:"decision" binding:"required,oneof=approve reject"`
	AdminNotes string `json:"adminNotes" binding:"max=2000"`
}

// AdminNotesRequest is the optional body of the approve/reject shortcuts
type AdminNotesRequest struct {
	AdminNotes string `json:"adminNotes" binding:"max=2000"`
}

// KYCStatusResponse is the KYC view of a technician
type KYCStatusResponse struct {
	TechnicianID       uint                      `json:"technicianId"`
	VerificationStatus models.VerificationStatus `json:"verificationStatus"`
	FirebaseKycStatus  models.FirebaseKycStatus  `json:"firebaseKycStatus"`
	FirebaseKycData    models.KycData            `json:"firebaseKycData"`
	AdminNotes         *string                   `json:"adminNotes"`
}

func newKYCService() *services.KYCService {
	return services.NewKYCService(config.GetDB(), services.GetNotifier(), config.GetConfig().KYCAutoApproveThreshold)
}

// respondKYCError maps KYC service errors onto the API error envelope
func respondKYCError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician not found")
	case errors.Is(err, services.ErrInvalidKYCStatus),
		errors.Is(err, services.ErrInvalidConfidence),
		errors.Is(err, services.ErrInvalidDecision):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrKYCFinalized):
		respondError(c, http.StatusConflict, "KYC_FINALIZED", "Technician verification has already been finalized")
	case errors.Is(err, services.ErrConcurrentUpdate):
		respondError(c, http.StatusConflict, "CONCURRENT_UPDATE", "Technician was updated by another request, please retry")
	default:
		respondInternalError(c, "INTERNAL_ERROR", "Failed to process KYC request", err)
	}
}

// SubmitFirebaseKYC handles POST /api/v1/technicians/:id/firebase-kyc - the technician
// themself or an admin reports the upstream verification result
func SubmitFirebaseKYC(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleTechnician, id) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only submit KYC results for yourself")
		return
	}

	var req FirebaseKYCRequest
	if !bindJSON(c, &req) {
		return
	}

	submission := services.KYCSubmission{
		Status:       req.FirebaseKycStatus,
		Data:         req.FirebaseKycData,
		DocumentURLs: req.DocumentURLs,
	}
	if req.ConfidenceScore != nil {
		submission.ConfidenceScore = *req.ConfidenceScore
	}

	outcome, err := newKYCService().Submit(c.Request.Context(), id, submission)
	if err != nil {
		respondKYCError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, outcome)
}

// GetKYCStatus handles GET /api/v1/technicians/:id/kyc-status
func GetKYCStatus(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if !principal.IsAdmin() && !principal.Is(models.RoleTechnician, id) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only view your own KYC status")
		return
	}

	technician, err := newKYCService().Status(c.Request.Context(), id)
	if err != nil {
		respondKYCError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, KYCStatusResponse{
		TechnicianID:       technician.ID,
		VerificationStatus: technician.VerificationStatus,
		FirebaseKycStatus:  technician.FirebaseKycStatus,
		FirebaseKycData:    technician.FirebaseKycData.Data(),
		AdminNotes:         technician.AdminNotes,
	})
}

// ListPendingReview handles GET /api/v1/admin/kyc/technicians/pending-review
func ListPendingReview(c *gin.Context) {
	page, err := newKYCService().PendingReview(c.Request.Context(), pageParams(c))
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve technicians for review", err)
		return
	}

	respondSuccess(c, http.StatusOK, page)
}

// FinalVerification handles POST /api/v1/admin/kyc/technicians/:id/final-verification
func FinalVerification(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req FinalVerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	applyDecision(c, id, req.Decision, req.AdminNotes)
}

// ApproveTechnician handles POST /api/v1/admin/technicians/:id/approve
func ApproveTechnician(c *gin.Context) {
	decisionShortcut(c, services.DecisionApprove)
}

// RejectTechnician handles POST /api/v1/admin/technicians/:id/reject
func RejectTechnician(c *gin.Context) {
	decisionShortcut(c, services.DecisionReject)
}

func decisionShortcut(c *gin.Context, decision string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	// the body is optional here
	var req AdminNotesRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	applyDecision(c, id, decision, req.AdminNotes)
}

func applyDecision(c *gin.Context, id uint, decision, notes string) {
	technician, err := newKYCService().FinalDecision(c.Request.Context(), id, decision, notes)
	if err != nil {
		respondKYCError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, technician)
}

// KYCStatistics handles GET /api/v1/admin/kyc/statistics
func KYCStatistics(c *gin.Context) {
	stats, err := newKYCService().Statistics(c.Request.Context())
	if err != nil {
		respondInternalError(c, "DATABASE_ERROR", "Failed to retrieve KYC statistics", err)
		return
	}

	respondSuccess(c, http.StatusOK, stats)
}
