// Package attendance runs the check-in and check-out pipeline: location
// admission, face and fraud assessment, persistence and point awards.
package attendance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/service/face"
	"attendance/workforce/internal/service/fraud"
	"attendance/workforce/internal/service/geofence"
	"attendance/workforce/internal/service/location"
	"attendance/workforce/internal/service/notification"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrInvalidCoordinates = errors.New("latitude and longitude must be valid coordinates")

// EventStore persists attendance events. Every method honours a transaction
// carried by ctx.
type EventStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	// OpenEvent returns the user's latest open event, or nil.
	OpenEvent(ctx context.Context, userID int) (*entity.AttendanceEvent, error)
	GetEvent(ctx context.Context, tenantID int, id uuid.UUID) (*entity.AttendanceEvent, error)
	// CreateEvent fails with entity.ErrAlreadyCheckedIn when the user
	// already has an open event.
	CreateEvent(ctx context.Context, e *entity.AttendanceEvent) error
	// UpdateCheckOut fails with entity.ErrNoActiveCheckIn when the event
	// was closed concurrently.
	UpdateCheckOut(ctx context.Context, e *entity.AttendanceEvent) error
	SetPoints(ctx context.Context, id uuid.UUID, points int) error
}

type UserStore interface {
	GetUser(ctx context.Context, id int) (entity.User, error)
	TenantAdmins(ctx context.Context, tenantID int) ([]entity.User, error)
}

// Ledger appends an entry and updates the balance as one unit.
type Ledger interface {
	Award(ctx context.Context, entry *entity.PointsLedgerEntry) error
}

type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64, tenantID int, hint *string) (location.Result, error)
}

type FaceMatcher interface {
	Compare(ctx context.Context, referenceRef, candidateRef string) face.Result
}

type FraudAnalyzer interface {
	Assess(ctx context.Context, event *entity.AttendanceEvent, mockLocation bool, tz *time.Location) entity.FraudIndicators
}

type PointsEngine interface {
	Evaluate(ctx context.Context, leg entity.Leg, event *entity.AttendanceEvent, user entity.User) int
}

type Notifier interface {
	Notify(ctx context.Context, user entity.User, kind notification.Kind, data map[string]interface{})
}

type Dependencies struct {
	Events    EventStore
	Users     UserStore
	Ledger    Ledger
	Resolver  Resolver
	Face      FaceMatcher
	Fraud     FraudAnalyzer
	Points    PointsEngine
	Notifier  Notifier
	DefaultTZ *time.Location
	Log       *zap.Logger
}

type Pipeline struct {
	Dependencies
	now func() time.Time
}

func NewPipeline(deps Dependencies) *Pipeline {
	if deps.DefaultTZ == nil {
		deps.DefaultTZ = time.UTC
	}
	return &Pipeline{Dependencies: deps, now: time.Now}
}

// WithClock replaces the pipeline clock.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

type CheckInRequest struct {
	UserID       int
	Latitude     float64
	Longitude    float64
	LocationHint *string
	PhotoURL     *string
	MockLocation bool
}

type CheckInResult struct {
	AttendanceID   uuid.UUID `json:"attendance_id"`
	CheckInTime    time.Time `json:"check_in_time"`
	LocationID     *int      `json:"location_id"`
	FaceVerified   bool      `json:"face_verified"`
	FaceConfidence float64   `json:"face_confidence"`
	FraudScore     int       `json:"fraud_score"`
	PointsEarned   int       `json:"points_earned"`
}

type CheckOutRequest struct {
	UserID       int
	AttendanceID *uuid.UUID
	Latitude     float64
	Longitude    float64
	LocationHint *string
}

type CheckOutResult struct {
	AttendanceID uuid.UUID `json:"attendance_id"`
	CheckOutTime time.Time `json:"check_out_time"`
	LocationID   *int      `json:"location_id"`
	HoursWorked  float64   `json:"hours_worked"`
	PointsEarned int       `json:"points_earned"`
	TotalPoints  int       `json:"total_points"`
}

// CheckIn opens a new event for a user who is not checked in. Location
// admission is the only gate; face and fraud results are recorded as is.
func (p *Pipeline) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResult, error) {
	if !geofence.ValidCoordinate(req.Latitude, req.Longitude) {
		return CheckInResult{}, web.NewRequestError(ErrInvalidCoordinates, http.StatusBadRequest)
	}

	user, err := p.Users.GetUser(ctx, req.UserID)
	if err != nil {
		return CheckInResult{}, err
	}

	open, err := p.Events.OpenEvent(ctx, user.ID)
	if err != nil {
		return CheckInResult{}, err
	}
	if open != nil {
		return CheckInResult{}, web.NewRequestError(entity.ErrAlreadyCheckedIn, http.StatusConflict)
	}

	resolved, err := p.admit(ctx, req.Latitude, req.Longitude, user.TenantID, req.LocationHint)
	if err != nil {
		return CheckInResult{}, err
	}

	tz := user.TimeLocation(p.DefaultTZ)
	event := entity.NewCheckIn(user.ID, user.TenantID, p.now(), req.Latitude, req.Longitude, resolved.LocationID)

	log := p.Log.With(zap.Int("user_id", user.ID), zap.String("attendance_id", event.ID.String()))

	if req.PhotoURL != nil && *req.PhotoURL != "" {
		event.FacePhotoURL = req.PhotoURL

		if user.HasReferencePhoto() {
			match := p.Face.Compare(ctx, *user.FacePhotoURL, *req.PhotoURL)
			if match.Error != "" {
				log.Warn("face match failed", zap.String("error", match.Error))
			}
			event.FaceVerified = match.Verified
			event.FaceConfidence = match.Confidence
		}
	}

	indicators := p.Fraud.Assess(ctx, event, req.MockLocation, tz)
	event.FraudIndicators = indicators
	event.FraudScore = indicators.Score

	err = p.Events.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.Events.CreateEvent(ctx, event); err != nil {
			return err
		}
		return p.award(ctx, entity.LegCheckIn, event, user)
	})
	if err != nil {
		return CheckInResult{}, err
	}

	log.Info("checked in",
		zap.Intp("location_id", event.CheckInLocationID),
		zap.Int("points", event.PointsEarned),
		zap.Int("fraud_score", event.FraudScore))

	p.Notifier.Notify(ctx, user, notification.CheckInSuccess, map[string]interface{}{
		"Time":   event.CheckInTime.In(tz).Format("15:04"),
		"Points": event.PointsEarned,
	})
	if event.FraudScore > fraud.AlertScore {
		p.alertAdmins(ctx, user, event)
	}

	return CheckInResult{
		AttendanceID:   event.ID,
		CheckInTime:    event.CheckInTime,
		LocationID:     event.CheckInLocationID,
		FaceVerified:   event.FaceVerified,
		FaceConfidence: event.FaceConfidence,
		FraudScore:     event.FraudScore,
		PointsEarned:   event.PointsEarned,
	}, nil
}

// CheckOut closes the given event, or the user's open event when no id is
// given. The checkout coordinate must be admitted like a check-in.
func (p *Pipeline) CheckOut(ctx context.Context, req CheckOutRequest) (CheckOutResult, error) {
	if !geofence.ValidCoordinate(req.Latitude, req.Longitude) {
		return CheckOutResult{}, web.NewRequestError(ErrInvalidCoordinates, http.StatusBadRequest)
	}

	user, err := p.Users.GetUser(ctx, req.UserID)
	if err != nil {
		return CheckOutResult{}, err
	}

	event, err := p.openEvent(ctx, user, req.AttendanceID)
	if err != nil {
		return CheckOutResult{}, err
	}

	resolved, err := p.admit(ctx, req.Latitude, req.Longitude, user.TenantID, req.LocationHint)
	if err != nil {
		return CheckOutResult{}, err
	}

	if err := event.Close(p.now(), req.Latitude, req.Longitude, resolved.LocationID); err != nil {
		return CheckOutResult{}, web.NewRequestError(entity.ErrNoActiveCheckIn, http.StatusBadRequest)
	}

	before := event.PointsEarned
	err = p.Events.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.Events.UpdateCheckOut(ctx, event); err != nil {
			return err
		}
		return p.award(ctx, entity.LegCheckOut, event, user)
	})
	if err != nil {
		return CheckOutResult{}, err
	}

	earned := event.PointsEarned - before
	tz := user.TimeLocation(p.DefaultTZ)

	p.Log.Info("checked out",
		zap.Int("user_id", user.ID),
		zap.String("attendance_id", event.ID.String()),
		zap.Float64("hours", event.HoursWorked()),
		zap.Int("points", earned))

	p.Notifier.Notify(ctx, user, notification.CheckOutSuccess, map[string]interface{}{
		"Time":   event.CheckOutTime.In(tz).Format("15:04"),
		"Hours":  fmt.Sprintf("%.1f", event.HoursWorked()),
		"Points": earned,
	})

	return CheckOutResult{
		AttendanceID: event.ID,
		CheckOutTime: *event.CheckOutTime,
		LocationID:   event.CheckOutLocationID,
		HoursWorked:  event.HoursWorked(),
		PointsEarned: earned,
		TotalPoints:  event.PointsEarned,
	}, nil
}

func (p *Pipeline) openEvent(ctx context.Context, user entity.User, id *uuid.UUID) (*entity.AttendanceEvent, error) {
	if id == nil {
		event, err := p.Events.OpenEvent(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, web.NewRequestError(entity.ErrNoActiveCheckIn, http.StatusBadRequest)
		}
		return event, nil
	}

	event, err := p.Events.GetEvent(ctx, user.TenantID, *id)
	if err != nil {
		return nil, err
	}
	if event.UserID != user.ID {
		return nil, web.NewRequestError(errors.New("attendance not found"), http.StatusNotFound)
	}
	if !event.IsOpen() {
		return nil, web.NewRequestError(entity.ErrNoActiveCheckIn, http.StatusBadRequest)
	}
	return event, nil
}

// admit runs location resolution and turns a rejection into a 400 that
// echoes the coordinate.
func (p *Pipeline) admit(ctx context.Context, lat, lng float64, tenantID int, hint *string) (location.Result, error) {
	res, err := p.Resolver.Resolve(ctx, lat, lng, tenantID, hint)
	if err != nil {
		return location.Result{}, err
	}
	if !res.Admitted {
		return location.Result{}, web.NewFieldsError(res.Err(lat, lng), http.StatusBadRequest, map[string]interface{}{
			"latitude":  lat,
			"longitude": lng,
		})
	}
	return res, nil
}

// award scores the leg, adds it to the event total and appends the ledger
// entry. It must run inside the event's transaction.
func (p *Pipeline) award(ctx context.Context, leg entity.Leg, event *entity.AttendanceEvent, user entity.User) error {
	points := p.Points.Evaluate(ctx, leg, event, user)
	if points == 0 {
		return nil
	}

	event.PointsEarned += points
	if err := p.Events.SetPoints(ctx, event.ID, event.PointsEarned); err != nil {
		return err
	}

	id := event.ID
	return p.Ledger.Award(ctx, &entity.PointsLedgerEntry{
		TenantID:     event.TenantID,
		UserID:       event.UserID,
		AttendanceID: &id,
		Type:         entity.LedgerEarn,
		Points:       points,
		Description:  string(leg),
	})
}

func (p *Pipeline) alertAdmins(ctx context.Context, user entity.User, event *entity.AttendanceEvent) {
	admins, err := p.Users.TenantAdmins(ctx, user.TenantID)
	if err != nil {
		p.Log.Warn("loading tenant admins", zap.Int("tenant_id", user.TenantID), zap.Error(err))
		return
	}

	name := ""
	if user.FullName != nil {
		name = *user.FullName
	}
	for _, admin := range admins {
		p.Notifier.Notify(ctx, admin, notification.FraudAlert, map[string]interface{}{
			"Name":         name,
			"AttendanceID": event.ID.String(),
			"Score":        event.FraudScore,
		})
	}
}
