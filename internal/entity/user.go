package entity

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	BasicEntity
	TenantID      int     `json:"tenant_id"      bun:"tenant_id,notnull"`
	EmployeeID    *string `json:"employee_id"    bun:"employee_id"`
	FullName      *string `json:"full_name"      bun:"full_name"`
	Password      *string `json:"-"              bun:"password"`
	Role          *string `json:"role"           bun:"role"`
	Phone         *string `json:"phone"          bun:"phone"`
	Locale        *string `json:"locale"         bun:"locale"`
	FacePhotoURL  *string `json:"face_photo_url" bun:"face_photo_url"`
	PointsBalance int     `json:"points_balance" bun:"points_balance,notnull"`

	// Timezone comes from the owning tenant.
	Timezone string `json:"timezone" bun:"timezone,scanonly"`
}

// TimeLocation returns the tenant's time zone, or fallback when it is unset
// or unknown.
func (u User) TimeLocation(fallback *time.Location) *time.Location {
	if u.Timezone != "" {
		if loc, err := time.LoadLocation(u.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

// HasReferencePhoto reports whether a face reference is registered.
func (u User) HasReferencePhoto() bool {
	return u.FacePhotoURL != nil && *u.FacePhotoURL != ""
}

type Tenant struct {
	bun.BaseModel `bun:"table:tenants,alias:t"`

	BasicEntity
	Name     string `json:"name"     bun:"name,notnull"`
	Timezone string `json:"timezone" bun:"timezone,notnull"`
}
