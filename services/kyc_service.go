package services

import (
	"context"
	"fmt"
	"time"

	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Admin decisions accepted by FinalDecision
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// KYCSubmission is a result reported by the upstream verification service
type KYCSubmission struct {
	Status          models.FirebaseKycStatus
	Data            models.KycData
	DocumentURLs    []string
	ConfidenceScore float64
}

// KYCOutcome is the state of a technician after a submission was applied
type KYCOutcome struct {
	Technician          *models.Technician `json:"technician"`
	RequiresAdminReview bool               `json:"requiresAdminReview"`
}

// KYCStatistics are the dashboard counters over all technicians
type KYCStatistics struct {
	Pending             int64 `json:"pending"`
	FirebaseVerified    int64 `json:"firebaseVerified"`
	FirebaseRejected    int64 `json:"firebaseRejected"`
	AdminApproved       int64 `json:"adminApproved"`
	AdminRejected       int64 `json:"adminRejected"`
	AwaitingAdminReview int64 `json:"awaitingAdminReview"`
}

// KYCStatusCount is one row of the grouped count behind KYCStatistics
type KYCStatusCount struct {
	FirebaseKycStatus  models.FirebaseKycStatus
	VerificationStatus models.VerificationStatus
	Count              int64
}

var submittableStatuses = map[models.FirebaseKycStatus]bool{
	models.KycFirebaseVerified:    true,
	models.KycFirebaseRejected:    true,
	models.KycFirebaseError:       true,
	models.KycAdminReviewRequired: true,
}

// reviewableStatuses are the upstream results an admin is asked to confirm
var reviewableStatuses = []models.FirebaseKycStatus{models.KycFirebaseVerified, models.KycFirebaseRejected}

// DecideKYC maps an upstream result onto the next verification status.
// A verified result above the threshold and any rejected result are final;
// everything else stays pending for an admin.
func DecideKYC(status models.FirebaseKycStatus, confidence, threshold float64) (models.VerificationStatus, bool) {
	switch {
	case status == models.KycFirebaseVerified && confidence > threshold:
		return models.VerificationVerified, false
	case status == models.KycFirebaseRejected:
		return models.VerificationRejected, false
	default:
		return models.VerificationPending, true
	}
}

// NeedsAdminReview is the predicate shared by the review queue and the statistics
func NeedsAdminReview(kyc models.FirebaseKycStatus, verification models.VerificationStatus) bool {
	return verification == models.VerificationPending &&
		(kyc == models.KycFirebaseVerified || kyc == models.KycFirebaseRejected)
}

// FoldKYCStatistics folds grouped counts into the dashboard buckets
func FoldKYCStatistics(rows []KYCStatusCount) KYCStatistics {
	var stats KYCStatistics
	for _, row := range rows {
		switch row.FirebaseKycStatus {
		case models.KycPending, models.KycProcessing:
			stats.Pending += row.Count
		case models.KycFirebaseVerified:
			stats.FirebaseVerified += row.Count
		case models.KycFirebaseRejected:
			stats.FirebaseRejected += row.Count
		}

		if row.FirebaseKycStatus.HasResult() {
			switch row.VerificationStatus {
			case models.VerificationVerified:
				stats.AdminApproved += row.Count
			case models.VerificationRejected:
				stats.AdminRejected += row.Count
			}
		}

		if NeedsAdminReview(row.FirebaseKycStatus, row.VerificationStatus) {
			stats.AwaitingAdminReview += row.Count
		}
	}
	return stats
}

// KYCService runs the technician verification state machine
type KYCService struct {
	db        *gorm.DB
	notifier  Notifier
	threshold float64
	log       *zap.Logger
	now       func() time.Time
}

// NewKYCService creates a KYC service. threshold is the confidence above which
// a verified upstream result is accepted without admin review.
func NewKYCService(db *gorm.DB, notifier Notifier, threshold float64) *KYCService {
	return &KYCService{
		db:        db,
		notifier:  notifier,
		threshold: threshold,
		log:       logger.L().Named("kyc"),
		now:       time.Now,
	}
}

// Submit applies an upstream verification result to a technician
func (s *KYCService) Submit(ctx context.Context, technicianID uint, sub KYCSubmission) (*KYCOutcome, error) {
	if !submittableStatuses[sub.Status] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKYCStatus, sub.Status)
	}
	if sub.ConfidenceScore < 0 || sub.ConfidenceScore > 1 {
		return nil, ErrInvalidConfidence
	}

	db := s.db.WithContext(ctx)
	var tech models.Technician
	if err := db.First(&tech, technicianID).Error; err != nil {
		return nil, notFound(err)
	}
	if tech.VerificationStatus.IsFinal() {
		return nil, ErrKYCFinalized
	}

	next, review := DecideKYC(sub.Status, sub.ConfidenceScore, s.threshold)

	processedAt := s.now().UTC()
	confidence := sub.ConfidenceScore
	record := sub.Data
	record.DocumentURLs = sub.DocumentURLs
	record.ConfidenceScore = &confidence
	record.ProcessedAt = &processedAt
	record.RequiresAdminReview = review

	res := db.Model(&models.Technician{}).
		Where("id = ? AND version = ?", tech.ID, tech.Version).
		Updates(map[string]interface{}{
			"firebase_kyc_status": sub.Status,
			"firebase_kyc_data":   datatypes.NewJSONType(record),
			"verification_status": next,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to store KYC result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrentUpdate
	}

	if err := db.Preload("Category").First(&tech, tech.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload technician: %w", err)
	}

	s.log.Info("KYC result applied",
		zap.Uint("technicianId", tech.ID),
		zap.String("firebaseKycStatus", string(sub.Status)),
		zap.Float64("confidenceScore", confidence),
		zap.String("verificationStatus", string(next)),
		zap.Bool("requiresAdminReview", review),
	)

	if review {
		if err := s.notifier.NotifyAdminReview(ctx, &tech, record); err != nil {
			s.log.Warn("failed to notify admins", zap.Uint("technicianId", tech.ID), zap.Error(err))
		}
	}

	return &KYCOutcome{Technician: &tech, RequiresAdminReview: review}, nil
}

// FinalDecision records an admin approval or rejection. It overrides any prior status.
func (s *KYCService) FinalDecision(ctx context.Context, technicianID uint, decision, notes string) (*models.Technician, error) {
	var status models.VerificationStatus
	switch decision {
	case DecisionApprove:
		status = models.VerificationVerified
	case DecisionReject:
		status = models.VerificationRejected
	default:
		return nil, ErrInvalidDecision
	}

	db := s.db.WithContext(ctx)
	var tech models.Technician
	if err := db.First(&tech, technicianID).Error; err != nil {
		return nil, notFound(err)
	}

	updates := map[string]interface{}{
		"verification_status": status,
		"version":             gorm.Expr("version + 1"),
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	if err := db.Model(&models.Technician{}).Where("id = ?", tech.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to store decision: %w", err)
	}
	if err := db.Preload("Category").First(&tech, tech.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload technician: %w", err)
	}

	s.log.Info("admin KYC decision", zap.Uint("technicianId", tech.ID), zap.String("decision", decision))
	if err := s.notifier.NotifyVerificationDecision(ctx, &tech, decision, notes); err != nil {
		s.log.Warn("failed to notify technician", zap.Uint("technicianId", tech.ID), zap.Error(err))
	}
	return &tech, nil
}

// PendingReview lists technicians whose upstream result awaits an admin, newest first
func (s *KYCService) PendingReview(ctx context.Context, p utils.Pagination) (utils.Page[models.Technician], error) {
	base := s.db.WithContext(ctx).Model(&models.Technician{}).
		Where("firebase_kyc_status IN ? AND verification_status = ?", reviewableStatuses, models.VerificationPending)

	return utils.FindPage[models.Technician](base, p, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Category").Order("created_at DESC").Order("id DESC")
	})
}

// Statistics counts technicians per KYC bucket with a single grouped query
func (s *KYCService) Statistics(ctx context.Context) (KYCStatistics, error) {
	var rows []KYCStatusCount
	err := s.db.WithContext(ctx).Model(&models.Technician{}).
		Select("firebase_kyc_status, verification_status, COUNT(*) AS count").
		Group("firebase_kyc_status, verification_status").
		Scan(&rows).Error
	if err != nil {
		return KYCStatistics{}, err
	}
	return FoldKYCStatistics(rows), nil
}

// Status returns the technician with its current KYC fields
func (s *KYCService) Status(ctx context.Context, technicianID uint) (*models.Technician, error) {
	var tech models.Technician
	if err := s.db.WithContext(ctx).First(&tech, technicianID).Error; err != nil {
		return nil, notFound(err)
	}
	return &tech, nil
}
