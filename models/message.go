package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a chat line exchanged on an appointment
type Message struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppointmentID uint           `gorm:"not null;index" json:"appointmentId"`
	SenderID      uint           `gorm:"not null;index" json:"senderId"`
	SenderRole    Role           `gorm:"type:varchar(20);not null" json:"senderRole"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	SentAt        time.Time      `gorm:"not null;index" json:"sentAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
