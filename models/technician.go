package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VerificationStatus is the final KYC outcome of a technician
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// IsFinal reports whether the status can only be changed by an admin decision
func (s VerificationStatus) IsFinal() bool {
	return s == VerificationVerified || s == VerificationRejected
}

// FirebaseKycStatus is the result reported by the upstream identity verification service
type FirebaseKycStatus string

const (
	KycPending             FirebaseKycStatus = "PENDING"
	KycProcessing          FirebaseKycStatus = "PROCESSING"
	KycFirebaseVerified    FirebaseKycStatus = "FIREBASE_VERIFIED"
	KycFirebaseRejected    FirebaseKycStatus = "FIREBASE_REJECTED"
	KycFirebaseError       FirebaseKycStatus = "FIREBASE_ERROR"
	KycAdminReviewRequired FirebaseKycStatus = "ADMIN_REVIEW_REQUIRED"
)

// HasResult reports whether the upstream service has produced a result
func (s FirebaseKycStatus) HasResult() bool {
	return s != "" && s != KycPending && s != KycProcessing
}

// AvailabilityStatus tells whether a technician can take new work
type AvailabilityStatus string

const (
	Available AvailabilityStatus = "AVAILABLE"
	Busy      AvailabilityStatus = "BUSY"
	Offline   AvailabilityStatus = "OFFLINE"
)

// Valid reports whether s is a known availability value
func (s AvailabilityStatus) Valid() bool {
	return s == Available || s == Busy || s == Offline
}

// KycData is the merged upstream verification record stored on a technician
type KycData struct {
	Provider            string         `json:"provider,omitempty"`
	ReferenceID         string         `json:"referenceId,omitempty"`
	DocumentType        string         `json:"documentType,omitempty"`
	FailureReason       string         `json:"failureReason,omitempty"`
	Checks              map[string]any `json:"checks,omitempty"`
	DocumentURLs        []string       `json:"documentUrls,omitempty"`
	ConfidenceScore     *float64       `json:"confidenceScore,omitempty"`
	ProcessedAt         *time.Time     `json:"processedAt,omitempty"`
	RequiresAdminReview bool           `json:"requiresAdminReview"`
}

// Technician is a service provider that must pass KYC before being matched
type Technician struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	Username           string                      `gorm:"uniqueIndex;not null" json:"username"`
	Email              string                      `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string                      `gorm:"not null" json:"-"`
	CategoryID         *uint                       `gorm:"index" json:"categoryId"`
	Category           *Category                   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Documents          *string                     `json:"documents"`                       // object storage key of the KYC document
	DocumentURL        *string                     `gorm:"-" json:"documentUrl,omitempty"` // presigned, computed per request
	EmailVerified      bool                        `gorm:"not null;default:false" json:"emailVerified"`
	VerificationStatus VerificationStatus          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"verificationStatus"`
	FirebaseKycStatus  FirebaseKycStatus           `gorm:"type:varchar(30);not null;default:'PENDING';index" json:"firebaseKycStatus"`
	FirebaseKycData    datatypes.JSONType[KycData] `json:"firebaseKycData"`
	AdminNotes         *string                     `gorm:"type:text" json:"adminNotes"`
	AvailabilityStatus AvailabilityStatus          `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"availabilityStatus"`
	// Version is bumped on every status write and used for compare-and-swap updates
	Version               int            `gorm:"not null;default:1" json:"version"`
	VerificationTokenHash *string        `gorm:"index" json:"-"`
	Services              []Service      `gorm:"foreignKey:TechnicianID" json:"services,omitempty"`
	Location              *Location      `gorm:"foreignKey:TechnicianID" json:"location,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Technician model
func (Technician) TableName() string {
	return "technicians"
}
