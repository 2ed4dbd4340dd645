// Package geofence holds the pure geometry used to admit a coordinate at a
// location: haversine distance, even-odd point in polygon and the radius or
// polygon admission test.
package geofence

import (
	"math"

	"attendance/workforce/internal/entity"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
	EarthRadiusMeters = 6371000.0

	// RadiusBufferMeters is added to a location's radius to absorb GPS drift.
	RadiusBufferMeters = 50.0

	// tolerance keeps a point computed to lie exactly on the buffered radius
	// inside it despite rounding in the trigonometry.
	tolerance = 1e-6
)

// DistanceMeters is the great-circle distance between two points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	Δφ := (lat2 - lat1) * math.Pi / 180.0
	Δλ := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	// Rounding can push a slightly past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// PointInPolygon applies the even-odd rule to an open polygon. Points exactly
// on an edge get whatever the parity test yields.
func PointInPolygon(point entity.Coordinate, polygon []entity.Coordinate) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	x, y := point.Lng, point.Lat
	inside := false

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := polygon[i].Lng, polygon[i].Lat
		xj, yj := polygon[j].Lng, polygon[j].Lat

		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}

	return inside
}

// IsAdmitted decides whether point may check in or out at loc. A usable
// polygon is strict and has no radius fallback.
func IsAdmitted(point entity.Coordinate, loc entity.Location) bool {
	if loc.HasPolygon() {
		return PointInPolygon(point, loc.PolygonCoords)
	}

	d := DistanceMeters(point.Lat, point.Lng, loc.Latitude, loc.Longitude)
	return d <= loc.RadiusMeters+RadiusBufferMeters+tolerance
}

// ValidCoordinate reports whether lat/lng are finite and in range.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
