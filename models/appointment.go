package models

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Valid reports whether s is a known appointment status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment books a technician for a client at a given time
type Appointment struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	ClientID        uint              `gorm:"not null;index" json:"clientId"`
	Client          *User             `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	TechnicianID    uint              `gorm:"not null;index" json:"technicianId"`
	Technician      *Technician       `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	ServiceType     string            `gorm:"not null" json:"serviceType"`
	AppointmentDate time.Time         `gorm:"not null;index" json:"appointmentDate"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Payments        []Payment         `gorm:"foreignKey:AppointmentID" json:"payments,omitempty"`
	Messages        []Message         `gorm:"foreignKey:AppointmentID" json:"messages,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// HasParticipant reports whether the principal is the client or the technician of the appointment
func (a Appointment) HasParticipant(role Role, id uint) bool {
	switch role {
	case RoleUser:
		return a.ClientID == id
	case RoleTechnician:
		return a.TechnicianID == id
	}
	return false
}
