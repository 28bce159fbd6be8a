package models

import "time"

// Location is the last known position of a technician.
// On PostgreSQL the table also carries a PostGIS geography column kept in sync by the locator.
type Location struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TechnicianID uint      `gorm:"uniqueIndex;not null" json:"technicianId"`
	Latitude     float64   `gorm:"not null;index:idx_locations_lat_lng,priority:1" json:"latitude"`
	Longitude    float64   `gorm:"not null;index:idx_locations_lat_lng,priority:2" json:"longitude"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the Location model
func (Location) TableName() string {
	return "locations"
}
