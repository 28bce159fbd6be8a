package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would violate a unique constraint
	ErrConflict = errors.New("record already exists")
	// ErrForbidden is returned when the caller may not act on the record
	ErrForbidden = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrInvalidKYCStatus  = errors.New("unsupported KYC status")
	ErrInvalidConfidence = errors.New("confidence score must be between 0 and 1")
	ErrInvalidDecision   = errors.New("decision must be approve or reject")
	ErrKYCFinalized      = errors.New("technician verification is already final")
	ErrConcurrentUpdate  = errors.New("technician was modified concurrently")

	ErrNoTechnicianFound = errors.New("no technicians found within the search radius")
	ErrInvalidCoordinate = errors.New("coordinates out of range")

	ErrPaymentGateway    = errors.New("payment gateway request failed")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrMissingResultCode = errors.New("callback carries no result code")

	ErrAppointmentCancelled = errors.New("appointment has been cancelled")
)

// IsDuplicateKey reports whether err is a unique constraint violation.
// Works with both PostgreSQL and SQLite error messages.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}

// notFound maps gorm's record-not-found onto ErrNotFound and leaves other errors untouched
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
