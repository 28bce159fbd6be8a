package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentRequest is a charge a participant starts for an appointment
type PaymentRequest struct {
	AppointmentID uint
	Amount        float64
	PhoneNumber   string
}

// STKCallback is the result the gateway posts back for an STK push
type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        *int   `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []struct {
			Name  string      `json:"Name"`
			Value interface{} `json:"Value,omitempty"`
		} `json:"Item"`
	} `json:"CallbackMetadata,omitempty"`
}

// STKCallbackEnvelope is the body of the gateway's callback request
type STKCallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// PaymentService records payments and settles them from gateway callbacks
type PaymentService struct {
	db          *gorm.DB
	gateway     PaymentGateway
	callbackURL string
	log         *zap.Logger
}

// NewPaymentService creates a payment service
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, callbackURL string) *PaymentService {
	return &PaymentService{
		db:          db,
		gateway:     gateway,
		callbackURL: callbackURL,
		log:         logger.L().Named("payments"),
	}
}

func (s *PaymentService) loadAppointment(ctx context.Context, role models.Role, actorID, appointmentID uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.WithContext(ctx).First(&appt, appointmentID).Error; err != nil {
		return nil, notFound(err)
	}
	if role != models.RoleAdmin && !appt.HasParticipant(role, actorID) {
		return nil, ErrForbidden
	}
	if appt.Status == models.AppointmentCancelled {
		return nil, ErrAppointmentCancelled
	}
	return &appt, nil
}

// Initiate starts an STK push and records a PENDING payment keyed by the gateway's checkout id
func (s *PaymentService) Initiate(ctx context.Context, role models.Role, actorID uint, req PaymentRequest) (*models.Payment, error) {
	appt, err := s.loadAppointment(ctx, role, actorID, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.InitiateSTKPush(ctx, STKPushRequest{
		Amount:           req.Amount,
		PhoneNumber:      req.PhoneNumber,
		AccountReference: fmt.Sprintf("Appointment-%d", appt.ID),
		Description:      "Payment for " + appt.ServiceType,
		CallbackURL:      s.callbackURL,
	})
	if err != nil {
		if !errors.Is(err, ErrPaymentGateway) {
			err = fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}
		return nil, err
	}

	payment := models.Payment{
		AppointmentID: appt.ID,
		TransactionID: resp.CheckoutRequestID,
		Amount:        req.Amount,
		PhoneNumber:   req.PhoneNumber,
		Status:        models.PaymentPending,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.log.Info("payment initiated",
		zap.Uint("paymentId", payment.ID),
		zap.Uint("appointmentId", appt.ID),
		zap.String("transactionId", payment.TransactionID),
	)
	return &payment, nil
}

// HandleCallback settles a PENDING payment. It reports false when the payment was already settled.
func (s *PaymentService) HandleCallback(ctx context.Context, cb STKCallback) (*models.Payment, bool, error) {
	db := s.db.WithContext(ctx)

	var payment models.Payment
	if err := db.Where("transaction_id = ?", cb.CheckoutRequestID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrPaymentNotFound
		}
		return nil, false, err
	}
	if payment.Status != models.PaymentPending {
		return &payment, false, nil
	}
	if cb.ResultCode == nil {
		return nil, false, ErrMissingResultCode
	}

	status := models.PaymentFailed
	if *cb.ResultCode == 0 {
		status = models.PaymentCompleted
	}

	res := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":             status,
			"result_code":        *cb.ResultCode,
			"result_description": cb.ResultDesc,
		})
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to settle payment: %w", res.Error)
	}
	if err := db.First(&payment, payment.ID).Error; err != nil {
		return nil, false, err
	}

	changed := res.RowsAffected > 0
	if changed {
		s.log.Info("payment settled",
			zap.Uint("paymentId", payment.ID),
			zap.String("transactionId", payment.TransactionID),
			zap.String("status", string(status)),
			zap.Int("resultCode", *cb.ResultCode),
		)
	}
	return &payment, changed, nil
}

// Simulate records a COMPLETED payment with a synthetic transaction id
func (s *PaymentService) Simulate(ctx context.Context, role models.Role, actorID uint, req PaymentRequest) (*models.Payment, error) {
	appt, err := s.loadAppointment(ctx, role, actorID, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	desc := "Simulated payment"
	code := 0
	payment := models.Payment{
		AppointmentID:     appt.ID,
		TransactionID:     NewTransactionID(),
		Amount:            req.Amount,
		PhoneNumber:       req.PhoneNumber,
		Status:            models.PaymentCompleted,
		ResultCode:        &code,
		ResultDescription: &desc,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return &payment, nil
}
