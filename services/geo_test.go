package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		delta                  float64
	}{
		{"same point", -1.2921, 36.8219, -1.2921, 36.8219, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, 111.195, 0.01},
		{"nairobi to mombasa", -1.2921, 36.8219, -4.0435, 39.6682, 440.0, 5},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 111.195, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HaversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2), tt.delta)
		})
	}
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(90, 180))
	assert.True(t, ValidCoordinate(-90, -180))
	assert.False(t, ValidCoordinate(90.1, 0))
	assert.False(t, ValidCoordinate(0, -180.5))
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	lat, lng, radius := -1.2921, 36.8219, 50.0
	box := BoundingBoxAround(lat, lng, radius)

	// points exactly on the circle in the four cardinal directions must be inside the box
	assert.LessOrEqual(t, box.MinLat, lat-0.449)
	assert.GreaterOrEqual(t, box.MaxLat, lat+0.449)
	assert.LessOrEqual(t, box.MinLng, lng-0.449)
	assert.GreaterOrEqual(t, box.MaxLng, lng+0.449)
	assert.Len(t, box.LongitudeRanges(), 1)
}

func TestBoundingBoxNearPole(t *testing.T) {
	box := BoundingBoxAround(89.9, 10, 50)
	assert.Equal(t, 90.0, box.MaxLat)
	assert.Equal(t, [][2]float64{{-180, 180}}, box.LongitudeRanges())
}

func TestBoundingBoxAcrossAntimeridian(t *testing.T) {
	box := BoundingBoxAround(0, 179.9, 50)
	ranges := box.LongitudeRanges()
	assert.Len(t, ranges, 2)
	assert.Equal(t, 180.0, ranges[0][1])
	assert.Equal(t, -180.0, ranges[1][0])
	assert.Greater(t, ranges[1][1], -180.0)
}
