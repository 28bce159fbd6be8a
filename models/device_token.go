package models

import "time"

// DeviceToken is a push notification token registered by a user or technician
type DeviceToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	OwnerID   uint      `gorm:"not null;index:idx_device_tokens_owner,priority:2" json:"ownerId"`
	OwnerRole Role      `gorm:"type:varchar(20);not null;index:idx_device_tokens_owner,priority:1" json:"ownerRole"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the DeviceToken model
func (DeviceToken) TableName() string {
	return "device_tokens"
}
