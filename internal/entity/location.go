package entity

import (
	"math"

	"github.com/uptrace/bun"
)

// Coordinate is one polygon vertex.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	bun.BaseModel `bun:"table:locations,alias:l"`

	BasicEntity
	TenantID        int          `json:"tenant_id"         bun:"tenant_id,notnull"`
	Name            string       `json:"name"              bun:"name,notnull"`
	Latitude        float64      `json:"latitude"          bun:"latitude"`
	Longitude       float64      `json:"longitude"         bun:"longitude"`
	RadiusMeters    float64      `json:"radius"            bun:"radius"`
	PolygonCoords   []Coordinate `json:"polygon_coords"    bun:"polygon_coords,type:jsonb,nullzero"`
	IsActive        bool         `json:"is_active"         bun:"is_active,notnull"`
	UseCustomPoints bool         `json:"use_custom_points" bun:"use_custom_points,notnull"`
	CustomPoints    int          `json:"custom_points"     bun:"custom_points,notnull"`
}

// HasPolygon reports whether the polygon is usable: at least three vertices,
// all finite.
func (l Location) HasPolygon() bool {
	if len(l.PolygonCoords) < 3 {
		return false
	}
	for _, c := range l.PolygonCoords {
		if !finite(c.Lat) || !finite(c.Lng) {
			return false
		}
	}
	return true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
