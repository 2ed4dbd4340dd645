package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// EventState is the explicit IN/OUT state of an attendance event.
type EventState string

const (
	EventOpen   EventState = "OPEN"
	EventClosed EventState = "CLOSED"
)

// Leg names the half of an attendance event being processed.
type Leg string

const (
	LegCheckIn  Leg = "check_in"
	LegCheckOut Leg = "check_out"
)

var (
	ErrEventClosed      = errors.New("attendance event already closed")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrNoActiveCheckIn  = errors.New("no active check-in")
)

// FraudIndicators is stored verbatim as JSON on the event.
type FraudIndicators struct {
	MockLocation     bool `json:"mock_location"`
	ImpossibleTravel bool `json:"impossible_travel"`
	UnusualTime      bool `json:"unusual_time"`
	IPMismatch       bool `json:"ip_mismatch"`
	Score            int  `json:"score"`
}

type AttendanceEvent struct {
	bun.BaseModel `bun:"table:attendance_events,alias:ae"`

	ID       uuid.UUID  `json:"id"        bun:"id,pk,type:uuid"`
	UserID   int        `json:"user_id"   bun:"user_id,notnull"`
	TenantID int        `json:"tenant_id" bun:"tenant_id,notnull"`
	State    EventState `json:"state"     bun:"state,notnull"`

	CheckInTime  time.Time  `json:"check_in_time"            bun:"check_in_time,notnull"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty" bun:"check_out_time"`

	CheckInLatitude    float64  `json:"check_in_latitude"               bun:"check_in_latitude"`
	CheckInLongitude   float64  `json:"check_in_longitude"              bun:"check_in_longitude"`
	CheckOutLatitude   *float64 `json:"check_out_latitude,omitempty"    bun:"check_out_latitude"`
	CheckOutLongitude  *float64 `json:"check_out_longitude,omitempty"   bun:"check_out_longitude"`
	CheckInLocationID  *int     `json:"check_in_location_id,omitempty"  bun:"check_in_location_id"`
	CheckOutLocationID *int     `json:"check_out_location_id,omitempty" bun:"check_out_location_id"`

	FaceVerified   bool    `json:"face_verified"            bun:"face_verified,notnull"`
	FaceConfidence float64 `json:"face_confidence"          bun:"face_confidence,notnull"`
	FacePhotoURL   *string `json:"face_photo_url,omitempty" bun:"face_photo_url"`

	FraudScore      int             `json:"fraud_score"      bun:"fraud_score,notnull"`
	FraudIndicators FraudIndicators `json:"fraud_indicators" bun:"fraud_indicators,type:jsonb"`

	PointsEarned int     `json:"points_earned"           bun:"points_earned,notnull"`
	IsValid      bool    `json:"is_valid"                bun:"is_valid,notnull"`
	ValidityNote *string `json:"validity_note,omitempty" bun:"validity_note"`

	CreatedAt time.Time  `json:"created_at"           bun:"created_at,nullzero,notnull,default:now()"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" bun:"updated_at"`
}

// NewCheckIn builds an open event for a check-in at the given coordinate.
func NewCheckIn(userID, tenantID int, at time.Time, lat, lng float64, locationID *int) *AttendanceEvent {
	return &AttendanceEvent{
		ID:                uuid.New(),
		UserID:            userID,
		TenantID:          tenantID,
		State:             EventOpen,
		CheckInTime:       at,
		CheckInLatitude:   lat,
		CheckInLongitude:  lng,
		CheckInLocationID: locationID,
		IsValid:           true,
		CreatedAt:         at,
	}
}

func (e *AttendanceEvent) IsOpen() bool {
	return e.State == EventOpen
}

// Close records the check-out leg. Closing a closed event is an error.
func (e *AttendanceEvent) Close(at time.Time, lat, lng float64, locationID *int) error {
	if !e.IsOpen() {
		return ErrEventClosed
	}

	e.State = EventClosed
	e.CheckOutTime = &at
	e.CheckOutLatitude = &lat
	e.CheckOutLongitude = &lng
	e.CheckOutLocationID = locationID
	e.UpdatedAt = &at
	return nil
}

// LocationFor returns the resolved location of the given leg.
func (e *AttendanceEvent) LocationFor(leg Leg) *int {
	if leg == LegCheckOut {
		return e.CheckOutLocationID
	}
	return e.CheckInLocationID
}

// HoursWorked is the check-in to check-out span, zero while open.
func (e *AttendanceEvent) HoursWorked() float64 {
	if e.CheckOutTime == nil {
		return 0
	}
	return e.CheckOutTime.Sub(e.CheckInTime).Hours()
}
