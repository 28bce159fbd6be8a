package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/services"
	"go.uber.org/zap"
)

// CreatePaymentRequest represents the request body for starting a payment
type CreatePaymentRequest struct {
	AppointmentID uint    `json:"appointmentId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PhoneNumber   string  `json:"phoneNumber" binding:"required,min=9,max=15,numeric"`
}

func (r CreatePaymentRequest) toService() services.PaymentRequest {
	return services.PaymentRequest{
		AppointmentID: r.AppointmentID,
		Amount:        r.Amount,
		PhoneNumber:   r.PhoneNumber,
	}
}

func newPaymentService() *services.PaymentService {
	cfg := config.GetConfig()
	return services.NewPaymentService(config.GetDB(), services.GetPaymentGateway(), cfg.PaymentCallbackURL())
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "Appointment not found")
	case errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this appointment")
	case errors.Is(err, services.ErrAppointmentCancelled):
		respondError(c, http.StatusConflict, "APPOINTMENT_CANCELLED", "Cancelled appointments cannot be paid")
	case errors.Is(err, services.ErrPaymentGateway):
		logger.L().Error("payment gateway request failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", "Payment provider could not process the request")
	default:
		respondInternalError(c, "DATABASE_ERROR", "Failed to record payment", err)
	}
}

// CreatePayment handles POST /api/v1/payments - starts an STK push and records a PENDING payment
func CreatePayment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := newPaymentService().Initiate(c.Request.Context(), principal.Role, principal.ID, req.toService())
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, payment)
}

// PaymentCallback handles POST /api/v1/payments/callback - the gateway reports an STK push result.
// Settled payments are left untouched when the gateway retries.
func PaymentCallback(c *gin.Context) {
	var envelope services.STKCallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		respondValidationError(c, err)
		return
	}
	callback := envelope.Body.StkCallback
	missing := gin.H{}
	if callback.CheckoutRequestID == "" {
		missing["CheckoutRequestID"] = "is required"
	}
	if callback.ResultCode == nil {
		missing["ResultCode"] = "is required"
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": missing,
			},
		})
		return
	}

	payment, changed, err := newPaymentService().HandleCallback(c.Request.Context(), callback)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			respondError(c, http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
			return
		}
		respondInternalError(c, "DATABASE_ERROR", "Failed to process payment callback", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"payment": payment,
		"updated": changed,
	})
}

// SimulatePayment handles POST /api/v1/payments/simulate - records a COMPLETED payment
// without contacting the gateway
func SimulatePayment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := newPaymentService().Simulate(c.Request.Context(), principal.Role, principal.ID, req.toService())
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, payment)
}
