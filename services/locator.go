package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/techeasyserve/techeasyserve-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchQuery selects technicians around a point
type MatchQuery struct {
	Latitude    float64
	Longitude   float64
	ServiceType string
	RadiusKm    float64
	// Limit caps the number of matches; zero means no cap
	Limit int
}

// TechnicianMatch is a matched technician and its distance in kilometres
type TechnicianMatch struct {
	Technician models.Technician `json:"technician"`
	Distance   float64           `json:"distance"`
}

// TechnicianLocator finds available, verified technicians near a point and keeps their positions
type TechnicianLocator interface {
	// Nearest returns the closest match or ErrNoTechnicianFound
	Nearest(ctx context.Context, q MatchQuery) (*TechnicianMatch, error)
	// Nearby returns every match sorted by distance, then technician id
	Nearby(ctx context.Context, q MatchQuery) ([]TechnicianMatch, error)
	SaveLocation(ctx context.Context, technicianID uint, lat, lng float64, address string) (*models.Location, error)
}

// NewTechnicianLocator picks the PostGIS locator on PostgreSQL and the bounding-box locator elsewhere
func NewTechnicianLocator(db *gorm.DB) TechnicianLocator {
	base := locator{db: db}
	if db.Dialector.Name() == "postgres" {
		base.candidates = postgisCandidates
		base.postgis = true
	} else {
		base.candidates = boundingBoxCandidates
	}
	return &base
}

type candidate struct {
	TechnicianID uint
	Distance     float64
}

type candidateFunc func(ctx context.Context, db *gorm.DB, q MatchQuery) ([]candidate, error)

type locator struct {
	db         *gorm.DB
	candidates candidateFunc
	postgis    bool
}

func (l *locator) Nearest(ctx context.Context, q MatchQuery) (*TechnicianMatch, error) {
	q.Limit = 1
	matches, err := l.Nearby(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoTechnicianFound
	}
	return &matches[0], nil
}

func (l *locator) Nearby(ctx context.Context, q MatchQuery) ([]TechnicianMatch, error) {
	if !ValidCoordinate(q.Latitude, q.Longitude) {
		return nil, ErrInvalidCoordinate
	}
	if q.RadiusKm <= 0 {
		return []TechnicianMatch{}, nil
	}

	found, err := l.candidates(ctx, l.db.WithContext(ctx), q)
	if err != nil {
		return nil, fmt.Errorf("failed to query technician locations: %w", err)
	}
	if len(found) == 0 {
		return []TechnicianMatch{}, nil
	}

	ids := make([]uint, len(found))
	for i, c := range found {
		ids[i] = c.TechnicianID
	}

	var techs []models.Technician
	if err := l.db.WithContext(ctx).
		Preload("Category").Preload("Services").Preload("Location").
		Find(&techs, ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load technicians: %w", err)
	}
	byID := make(map[uint]models.Technician, len(techs))
	for _, t := range techs {
		byID[t.ID] = t
	}

	matches := make([]TechnicianMatch, 0, len(found))
	for _, c := range found {
		if t, ok := byID[c.TechnicianID]; ok {
			matches = append(matches, TechnicianMatch{Technician: t, Distance: c.Distance})
		}
	}
	return matches, nil
}

func (l *locator) SaveLocation(ctx context.Context, technicianID uint, lat, lng float64, address string) (*models.Location, error) {
	if !ValidCoordinate(lat, lng) {
		return nil, ErrInvalidCoordinate
	}

	var loc models.Location
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tech models.Technician
		if err := tx.Select("id").First(&tech, technicianID).Error; err != nil {
			return notFound(err)
		}

		row := models.Location{TechnicianID: technicianID, Latitude: lat, Longitude: lng, Address: address}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "technician_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "address", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}

		if l.postgis {
			if err := tx.Exec(
				"UPDATE locations SET coordinates = ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography WHERE technician_id = ?",
				lng, lat, technicianID,
			).Error; err != nil {
				return err
			}
		}

		return tx.Where("technician_id = ?", technicianID).First(&loc).Error
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// eligible restricts a locations query to technicians that can be matched
func eligible(db *gorm.DB, serviceType string) *gorm.DB {
	db = db.Table("locations").
		Joins("JOIN technicians ON technicians.id = locations.technician_id AND technicians.deleted_at IS NULL").
		Where("technicians.availability_status = ? AND technicians.verification_status = ?",
			models.Available, models.VerificationVerified)
	if serviceType != "" {
		db = db.Where("EXISTS (SELECT 1 FROM services WHERE services.technician_id = technicians.id AND services.name = ? AND services.deleted_at IS NULL)", serviceType)
	}
	return db
}

func postgisCandidates(_ context.Context, db *gorm.DB, q MatchQuery) ([]candidate, error) {
	const point = "ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography"

	query := eligible(db, q.ServiceType).
		Select("locations.technician_id, ST_Distance(locations.coordinates, "+point+") / 1000.0 AS distance", q.Longitude, q.Latitude).
		Where("ST_DWithin(locations.coordinates, "+point+", ?)", q.Longitude, q.Latitude, q.RadiusKm*1000).
		Order("distance ASC").Order("locations.technician_id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []candidate
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func boundingBoxCandidates(_ context.Context, db *gorm.DB, q MatchQuery) ([]candidate, error) {
	box := BoundingBoxAround(q.Latitude, q.Longitude, q.RadiusKm)

	query := eligible(db, q.ServiceType).
		Select("locations.technician_id, locations.latitude, locations.longitude").
		Where("locations.latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)

	ranges := box.LongitudeRanges()
	if len(ranges) == 1 {
		query = query.Where("locations.longitude BETWEEN ? AND ?", ranges[0][0], ranges[0][1])
	} else {
		query = query.Where("((locations.longitude BETWEEN ? AND ?) OR (locations.longitude BETWEEN ? AND ?))",
			ranges[0][0], ranges[0][1], ranges[1][0], ranges[1][1])
	}

	var rows []struct {
		TechnicianID uint
		Latitude     float64
		Longitude    float64
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(rows))
	for _, r := range rows {
		d := HaversineKm(q.Latitude, q.Longitude, r.Latitude, r.Longitude)
		if d <= q.RadiusKm {
			out = append(out, candidate{TechnicianID: r.TechnicianID, Distance: d})
		}
	}
	sortCandidates(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func sortCandidates(c []candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Distance != c[j].Distance {
			return c[i].Distance < c[j].Distance
		}
		return c[i].TechnicianID < c[j].TechnicianID
	})
}
