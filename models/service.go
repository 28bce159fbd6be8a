package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is something a technician offers at a fixed price
type Service struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;index" json:"name"`
	Price        float64        `gorm:"not null;check:price > 0" json:"price"`
	TechnicianID uint           `gorm:"not null;index" json:"technicianId"`
	Technician   *Technician    `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}
