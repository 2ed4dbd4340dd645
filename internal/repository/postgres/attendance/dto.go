package attendance

import (
	"mime/multipart"
	"time"

	"attendance/workforce/internal/entity"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/google/uuid"
)

type Filter struct {
	Limit       *int
	Offset      *int
	Page        *int
	Search      *string
	UserID      *int
	LocationID  *int
	IsValid     *bool
	FlaggedOnly *bool
	Date        *string
}

type GetListResponse struct {
	ID              uuid.UUID              `json:"id"               bun:"id"`
	UserID          int                    `json:"user_id"          bun:"user_id"`
	EmployeeID      *string                `json:"employee_id"      bun:"employee_id"`
	Fullname        *string                `json:"full_name"        bun:"full_name"`
	LocationID      *int                   `json:"location_id"      bun:"location_id"`
	Location        *string                `json:"location"         bun:"location"`
	WorkDay         *date.Date             `json:"work_day"         bun:"-"`
	WorkDayRaw      string                 `json:"-"                bun:"work_day"`
	CheckInTime     time.Time              `json:"check_in_time"    bun:"check_in_time"`
	CheckOutTime    *time.Time             `json:"check_out_time"   bun:"check_out_time"`
	TotalHours      string                 `json:"total_hours"      bun:"-"`
	FaceVerified    bool                   `json:"face_verified"    bun:"face_verified"`
	FraudScore      int                    `json:"fraud_score"      bun:"fraud_score"`
	FraudIndicators entity.FraudIndicators `json:"fraud_indicators" bun:"fraud_indicators,type:jsonb"`
	PointsEarned    int                    `json:"points_earned"    bun:"points_earned"`
	IsValid         bool                   `json:"is_valid"         bun:"is_valid"`
}

type GetDetailByIdResponse struct {
	entity.AttendanceEvent `bun:",extend"`

	EmployeeID       *string    `json:"employee_id"        bun:"employee_id"`
	Fullname         *string    `json:"full_name"          bun:"full_name"`
	CheckInLocation  *string    `json:"check_in_location"  bun:"check_in_location"`
	CheckOutLocation *string    `json:"check_out_location" bun:"check_out_location"`
	WorkDay          *date.Date `json:"work_day"           bun:"-"`
	WorkDayRaw       string     `json:"-"                  bun:"work_day"`
	TotalHours       string     `json:"total_hours"        bun:"-"`
}

type CheckInRequest struct {
	Latitude   *float64              `json:"latitude"    form:"latitude"`
	Longitude  *float64              `json:"longitude"   form:"longitude"`
	LocationID *string               `json:"location_id" form:"location_id"`
	PhotoURL   *string               `json:"photo_url"   form:"photo_url"`
	Photo      *multipart.FileHeader `json:"-"           form:"photo"`
	IsMock     bool                  `json:"is_mock"     form:"is_mock"`
}

type CheckOutRequest struct {
	AttendanceID *string  `json:"attendance_id" form:"attendance_id"`
	Latitude     *float64 `json:"latitude"      form:"latitude"`
	Longitude    *float64 `json:"longitude"     form:"longitude"`
	LocationID   *string  `json:"location_id"   form:"location_id"`
}

type UpdateValidityRequest struct {
	ID      uuid.UUID `json:"-"       form:"-"`
	IsValid *bool     `json:"is_valid" form:"is_valid"`
	Note    *string   `json:"note"     form:"note"`
}
