package services

import (
	"context"

	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/models"
	"go.uber.org/zap"
)

// PushMessage is a notification delivered to registered devices
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier delivers out-of-band messages. Callers log failures and never retry.
type Notifier interface {
	NotifyAdminReview(ctx context.Context, technician *models.Technician, data models.KycData) error
	NotifyVerificationDecision(ctx context.Context, technician *models.Technician, decision string, notes string) error
	SendVerificationEmail(ctx context.Context, email, link string) error
	SendPasswordReset(ctx context.Context, email, link string) error
	// SendPush returns the number of devices the message was handed to
	SendPush(ctx context.Context, tokens []string, msg PushMessage) (int, error)
}

// LogNotifier writes every notification as a structured log entry
type LogNotifier struct {
	log *zap.Logger
}

var notifierInstance Notifier

// NewLogNotifier creates a notifier that logs through l
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	return &LogNotifier{log: l.Named("notifier")}
}

// GetNotifier returns the notifier instance, defaulting to a LogNotifier on the application logger
func GetNotifier() Notifier {
	if notifierInstance == nil {
		notifierInstance = NewLogNotifier(logger.L())
	}
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

func (n *LogNotifier) NotifyAdminReview(_ context.Context, technician *models.Technician, data models.KycData) error {
	fields := []zap.Field{
		zap.Uint("technicianId", technician.ID),
		zap.String("username", technician.Username),
		zap.String("firebaseKycStatus", string(technician.FirebaseKycStatus)),
		zap.String("provider", data.Provider),
	}
	if data.ConfidenceScore != nil {
		fields = append(fields, zap.Float64("confidenceScore", *data.ConfidenceScore))
	}
	n.log.Info("technician requires admin KYC review", fields...)
	return nil
}

func (n *LogNotifier) NotifyVerificationDecision(_ context.Context, technician *models.Technician, decision string, notes string) error {
	n.log.Info("technician verification decided",
		zap.Uint("technicianId", technician.ID),
		zap.String("email", technician.Email),
		zap.String("decision", decision),
		zap.String("verificationStatus", string(technician.VerificationStatus)),
		zap.String("adminNotes", notes),
	)
	return nil
}

func (n *LogNotifier) SendVerificationEmail(_ context.Context, email, link string) error {
	n.log.Info("verification email", zap.String("to", email), zap.String("link", link))
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, link string) error {
	n.log.Info("password reset email", zap.String("to", email), zap.String("link", link))
	return nil
}

func (n *LogNotifier) SendPush(_ context.Context, tokens []string, msg PushMessage) (int, error) {
	for _, token := range tokens {
		n.log.Info("push notification",
			zap.String("token", token),
			zap.String("title", msg.Title),
			zap.String("body", msg.Body),
			zap.Any("data", msg.Data),
		)
	}
	return len(tokens), nil
}
