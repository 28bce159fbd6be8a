package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/utils"
)

const testThreshold = 0.95

func TestDecideKYC(t *testing.T) {
	tests := []struct {
		name       string
		status     models.FirebaseKycStatus
		confidence float64
		wantStatus models.VerificationStatus
		wantReview bool
	}{
		{"verified above threshold", models.KycFirebaseVerified, 0.97, models.VerificationVerified, false},
		{"verified at threshold", models.KycFirebaseVerified, 0.95, models.VerificationPending, true},
		{"verified below threshold", models.KycFirebaseVerified, 0.80, models.VerificationPending, true},
		{"rejected with high confidence", models.KycFirebaseRejected, 0.99, models.VerificationRejected, false},
		{"rejected with zero confidence", models.KycFirebaseRejected, 0, models.VerificationRejected, false},
		{"upstream error", models.KycFirebaseError, 0.99, models.VerificationPending, true},
		{"review required", models.KycAdminReviewRequired, 1, models.VerificationPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, review := DecideKYC(tt.status, tt.confidence, testThreshold)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantReview, review)
		})
	}
}

func TestKYCSubmit(t *testing.T) {
	tests := []struct {
		name        string
		submission  KYCSubmission
		wantStatus  models.VerificationStatus
		wantReview  bool
		wantNotices int
	}{
		{
			name:       "high confidence is auto approved",
			submission: KYCSubmission{Status: models.KycFirebaseVerified, ConfidenceScore: 0.97},
			wantStatus: models.VerificationVerified,
		},
		{
			name:        "low confidence goes to admin review",
			submission:  KYCSubmission{Status: models.KycFirebaseVerified, ConfidenceScore: 0.80},
			wantStatus:  models.VerificationPending,
			wantReview:  true,
			wantNotices: 1,
		},
		{
			name:       "rejection is final",
			submission: KYCSubmission{Status: models.KycFirebaseRejected, ConfidenceScore: 0.99},
			wantStatus: models.VerificationRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			notifier := NewMockNotifier()
			svc := NewKYCService(db, notifier, testThreshold)
			fixed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
			svc.now = func() time.Time { return fixed }

			tech := createTechnician(t, db, "tech")
			sub := tt.submission
			sub.Data = models.KycData{Provider: "firebase", ReferenceID: "ref-1"}
			sub.DocumentURLs = []string{"https://docs.example.com/id.png"}

			outcome, err := svc.Submit(context.Background(), tech.ID, sub)
			require.NoError(t, err)

			assert.Equal(t, tt.wantReview, outcome.RequiresAdminReview)
			assert.Equal(t, tt.wantStatus, outcome.Technician.VerificationStatus)
			assert.Equal(t, sub.Status, outcome.Technician.FirebaseKycStatus)
			assert.Equal(t, 2, outcome.Technician.Version, "Version should be bumped")

			record := outcome.Technician.FirebaseKycData.Data()
			assert.Equal(t, "firebase", record.Provider)
			assert.Equal(t, "ref-1", record.ReferenceID)
			assert.Equal(t, sub.DocumentURLs, record.DocumentURLs)
			require.NotNil(t, record.ConfidenceScore)
			assert.InDelta(t, sub.ConfidenceScore, *record.ConfidenceScore, 1e-9)
			require.NotNil(t, record.ProcessedAt)
			assert.True(t, fixed.Equal(*record.ProcessedAt))
			assert.Equal(t, tt.wantReview, record.RequiresAdminReview)

			assert.Len(t, notifier.SentOfKind("admin_review"), tt.wantNotices)
		})
	}
}

func TestKYCSubmitValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewKYCService(db, NewMockNotifier(), testThreshold)
	tech := createTechnician(t, db, "tech")
	ctx := context.Background()

	_, err := svc.Submit(ctx, tech.ID, KYCSubmission{Status: models.KycPending, ConfidenceScore: 0.5})
	assert.ErrorIs(t, err, ErrInvalidKYCStatus)

	_, err = svc.Submit(ctx, tech.ID, KYCSubmission{Status: "SOMETHING_ELSE", ConfidenceScore: 0.5})
	assert.ErrorIs(t, err, ErrInvalidKYCStatus)

	_, err = svc.Submit(ctx, tech.ID, KYCSubmission{Status: models.KycFirebaseVerified, ConfidenceScore: 1.2})
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	_, err = svc.Submit(ctx, tech.ID, KYCSubmission{Status: models.KycFirebaseVerified, ConfidenceScore: -0.1})
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	_, err = svc.Submit(ctx, 9999, KYCSubmission{Status: models.KycFirebaseVerified, ConfidenceScore: 0.5})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKYCSubmitRejectedWhenFinal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewKYCService(db, NewMockNotifier(), testThreshold)
	tech := createTechnician(t, db, "done", func(tc *models.Technician) {
		tc.VerificationStatus = models.VerificationVerified
	})

	_, err := svc.Submit(context.Background(), tech.ID, KYCSubmission{Status: models.KycFirebaseRejected})
	assert.ErrorIs(t, err, ErrKYCFinalized)

	var stored models.Technician
	require.NoError(t, db.First(&stored, tech.ID).Error)
	assert.Equal(t, models.VerificationVerified, stored.VerificationStatus, "Final status must not change")
}

func TestKYCSubmitNotifierFailureIsNotFatal(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewMockNotifier()
	notifier.Err = errors.New("smtp down")
	svc := NewKYCService(db, notifier, testThreshold)
	tech := createTechnician(t, db, "tech")

	outcome, err := svc.Submit(context.Background(), tech.ID, KYCSubmission{Status: models.KycFirebaseVerified, ConfidenceScore: 0.5})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresAdminReview)
}

func TestKYCFinalDecision(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewMockNotifier()
	svc := NewKYCService(db, notifier, testThreshold)
	ctx := context.Background()

	tech := createTechnician(t, db, "tech", func(tc *models.Technician) {
		tc.FirebaseKycStatus = models.KycFirebaseVerified
	})

	approved, err := svc.FinalDecision(ctx, tech.ID, DecisionApprove, "documents look good")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, approved.VerificationStatus)
	require.NotNil(t, approved.AdminNotes)
	assert.Equal(t, "documents look good", *approved.AdminNotes)

	again, err := svc.FinalDecision(ctx, tech.ID, DecisionApprove, "documents look good")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, again.VerificationStatus, "Repeating a decision is idempotent")

	rejected, err := svc.FinalDecision(ctx, tech.ID, DecisionReject, "expired id")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, rejected.VerificationStatus, "Admin decision overrides any prior status")

	assert.Len(t, notifier.SentOfKind("decision"), 3)

	_, err = svc.FinalDecision(ctx, tech.ID, "maybe", "")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = svc.FinalDecision(ctx, 4242, DecisionApprove, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKYCPendingReview(t *testing.T) {
	db := setupTestDB(t)
	svc := NewKYCService(db, NewMockNotifier(), testThreshold)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []models.FirebaseKycStatus{
		models.KycFirebaseVerified,
		models.KycFirebaseRejected,
		models.KycFirebaseVerified,
		models.KycFirebaseError,
		models.KycPending,
	} {
		created := base.Add(time.Duration(i) * time.Hour)
		st := status
		createTechnician(t, db, "tech"+string(rune('a'+i)), func(tc *models.Technician) {
			tc.FirebaseKycStatus = st
			tc.CreatedAt = created
		})
	}
	createTechnician(t, db, "approved", func(tc *models.Technician) {
		tc.FirebaseKycStatus = models.KycFirebaseVerified
		tc.VerificationStatus = models.VerificationVerified
	})

	page, err := svc.PendingReview(context.Background(), utils.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "techc", page.Items[0].Username, "Newest first")
	assert.Equal(t, "techb", page.Items[1].Username)
}

func TestFoldKYCStatistics(t *testing.T) {
	rows := []KYCStatusCount{
		{models.KycPending, models.VerificationPending, 4},
		{models.KycProcessing, models.VerificationPending, 1},
		{models.KycFirebaseVerified, models.VerificationPending, 2},
		{models.KycFirebaseVerified, models.VerificationVerified, 5},
		{models.KycFirebaseRejected, models.VerificationPending, 1},
		{models.KycFirebaseRejected, models.VerificationRejected, 3},
		{models.KycFirebaseError, models.VerificationPending, 2},
		{models.KycAdminReviewRequired, models.VerificationRejected, 1},
	}

	stats := FoldKYCStatistics(rows)
	assert.Equal(t, KYCStatistics{
		Pending:             5,
		FirebaseVerified:    7,
		FirebaseRejected:    4,
		AdminApproved:       5,
		AdminRejected:       4,
		AwaitingAdminReview: 3,
	}, stats)
}

func TestKYCStatisticsQuery(t *testing.T) {
	db := setupTestDB(t)
	svc := NewKYCService(db, NewMockNotifier(), testThreshold)

	createTechnician(t, db, "p1")
	createTechnician(t, db, "p2")
	createTechnician(t, db, "fv", func(tc *models.Technician) { tc.FirebaseKycStatus = models.KycFirebaseVerified })
	createTechnician(t, db, "ok", func(tc *models.Technician) {
		tc.FirebaseKycStatus = models.KycFirebaseVerified
		tc.VerificationStatus = models.VerificationVerified
	})

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Pending)
	assert.EqualValues(t, 2, stats.FirebaseVerified)
	assert.EqualValues(t, 1, stats.AdminApproved)
	assert.EqualValues(t, 1, stats.AwaitingAdminReview)
}
