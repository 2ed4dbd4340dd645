package location

import (
	"attendance/workforce/internal/entity"
)

type Filter struct {
	Limit    *int
	Offset   *int
	Page     *int
	Search   *string
	IsActive *bool
}

type GetListResponse struct {
	ID              int     `json:"id"                bun:"id"`
	Name            string  `json:"name"              bun:"name"`
	Latitude        float64 `json:"latitude"          bun:"latitude"`
	Longitude       float64 `json:"longitude"         bun:"longitude"`
	RadiusMeters    float64 `json:"radius"            bun:"radius"`
	PolygonVertices int     `json:"polygon_vertices"  bun:"polygon_vertices"`
	IsActive        bool    `json:"is_active"         bun:"is_active"`
	UseCustomPoints bool    `json:"use_custom_points" bun:"use_custom_points"`
	CustomPoints    int     `json:"custom_points"     bun:"custom_points"`
}

type CreateRequest struct {
	Name            *string             `json:"name"              form:"name"`
	Latitude        *float64            `json:"latitude"          form:"latitude"`
	Longitude       *float64            `json:"longitude"         form:"longitude"`
	RadiusMeters    *float64            `json:"radius"            form:"radius"`
	PolygonCoords   []entity.Coordinate `json:"polygon_coords"    form:"-"`
	IsActive        *bool               `json:"is_active"         form:"is_active"`
	UseCustomPoints *bool               `json:"use_custom_points" form:"use_custom_points"`
	CustomPoints    *int                `json:"custom_points"     form:"custom_points"`
}

type UpdateRequest struct {
	ID              int                 `json:"id"                form:"id"`
	Name            *string             `json:"name"              form:"name"`
	Latitude        *float64            `json:"latitude"          form:"latitude"`
	Longitude       *float64            `json:"longitude"         form:"longitude"`
	RadiusMeters    *float64            `json:"radius"            form:"radius"`
	PolygonCoords   []entity.Coordinate `json:"polygon_coords"    form:"-"`
	IsActive        *bool               `json:"is_active"         form:"is_active"`
	UseCustomPoints *bool               `json:"use_custom_points" form:"use_custom_points"`
	CustomPoints    *int                `json:"custom_points"     form:"custom_points"`
}
