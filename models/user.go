package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a client of the marketplace. Admins are users with RoleAdmin.
type User struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Username              string         `gorm:"uniqueIndex;not null" json:"username"`
	Email                 string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash          string         `gorm:"not null" json:"-"`
	IsVerified            bool           `gorm:"not null;default:false" json:"isVerified"`
	Role                  Role           `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	VerificationTokenHash *string        `gorm:"index" json:"-"`
	ResetTokenHash        *string        `gorm:"index" json:"-"`
	ResetTokenExpiresAt   *time.Time     `json:"-"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
