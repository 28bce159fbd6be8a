package models

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables for every model.
// On PostgreSQL it also provisions the PostGIS geography column used by the technician locator.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Category{},
		&Technician{},
		&Service{},
		&Location{},
		&Appointment{},
		&Payment{},
		&Rating{},
		&Message{},
		&DeviceToken{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS postgis",
		"ALTER TABLE locations ADD COLUMN IF NOT EXISTS coordinates geography(Point, 4326)",
		"CREATE INDEX IF NOT EXISTS idx_locations_coordinates ON locations USING GIST (coordinates)",
		"UPDATE locations SET coordinates = ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography WHERE coordinates IS NULL",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgis setup %q: %w", stmt, err)
		}
	}
	return nil
}
