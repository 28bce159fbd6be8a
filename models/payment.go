package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is a mobile-money charge against an appointment
type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	AppointmentID     uint           `gorm:"not null;index" json:"appointmentId"`
	TransactionID     string         `gorm:"uniqueIndex;not null" json:"transactionId"`
	Amount            float64        `gorm:"not null;check:amount > 0" json:"amount"`
	PhoneNumber       string         `gorm:"not null" json:"phoneNumber"`
	Status            PaymentStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ResultCode        *int           `json:"resultCode,omitempty"`
	ResultDescription *string        `json:"resultDescription,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
