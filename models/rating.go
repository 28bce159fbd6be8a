package models

import (
	"time"

	"gorm.io/gorm"
)

// Rating is a client's score for a technician
type Rating struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Score        int            `gorm:"not null;check:score >= 1 AND score <= 5" json:"score"`
	Comment      string         `gorm:"type:text" json:"comment"`
	TechnicianID uint           `gorm:"not null;index" json:"technicianId"`
	UserID       uint           `gorm:"not null;index" json:"userId"`
	User         *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Rating model
func (Rating) TableName() string {
	return "ratings"
}
