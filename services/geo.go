package services

import "math"

// EarthRadiusKm is the mean earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// ValidCoordinate reports whether lat/lng are inside WGS84 bounds
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HaversineKm returns the great-circle distance between two points in kilometres
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox is a lat/lng rectangle that contains every point within a radius of its center
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBoxAround returns the smallest box containing the circle of radiusKm around lat/lng.
// Longitudes may fall outside [-180, 180] when the circle crosses the antimeridian; use LongitudeRanges.
func BoundingBoxAround(lat, lng, radiusKm float64) BoundingBox {
	deg := 180 / math.Pi
	dLat := radiusKm / EarthRadiusKm * deg

	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
	}

	// near a pole every longitude is reachable
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLng, box.MaxLng = -180, 180
		return box
	}

	dLng := math.Asin(math.Min(1, math.Sin(radiusKm/EarthRadiusKm)/math.Cos(lat*math.Pi/180))) * deg
	if dLng >= 180 {
		box.MinLng, box.MaxLng = -180, 180
		return box
	}
	box.MinLng = lng - dLng
	box.MaxLng = lng + dLng
	return box
}

// LongitudeRanges splits the box into one or two ranges inside [-180, 180]
func (b BoundingBox) LongitudeRanges() [][2]float64 {
	switch {
	case b.MinLng < -180:
		return [][2]float64{{b.MinLng + 360, 180}, {-180, b.MaxLng}}
	case b.MaxLng > 180:
		return [][2]float64{{b.MinLng, 180}, {-180, b.MaxLng - 360}}
	default:
		return [][2]float64{{b.MinLng, b.MaxLng}}
	}
}
