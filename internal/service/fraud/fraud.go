// Package fraud scores a check-in for signs of location spoofing. The score
// is advisory: it is stored on the event and never blocks admission.
package fraud

import (
	"context"
	"time"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/service/geofence"

	"go.uber.org/zap"
)

const (
	WeightMockLocation     = 40
	WeightImpossibleTravel = 50
	WeightUnusualTime      = 10
	WeightIPMismatch       = 30

	// MaxSpeedKmh is the fastest plausible travel between two events.
	MaxSpeedKmh = 200.0

	// AlertScore is the score above which an event is logged as suspicious.
	AlertScore = 50

	maxScore = 100
)

// Store finds the event the current one is compared against.
type Store interface {
	// LastEventWithGPSBefore returns the user's latest event with a GPS fix
	// checked in strictly before the given time, or nil.
	LastEventWithGPSBefore(ctx context.Context, userID int, before time.Time) (*entity.AttendanceEvent, error)
}

type Analyzer struct {
	store Store
	log   *zap.Logger
}

func NewAnalyzer(store Store, log *zap.Logger) *Analyzer {
	return &Analyzer{store: store, log: log}
}

// Assess looks up the user's prior event and analyzes the check-in. Lookup
// failures are logged and treated as "no prior event".
func (a *Analyzer) Assess(ctx context.Context, event *entity.AttendanceEvent, mockLocation bool, tz *time.Location) entity.FraudIndicators {
	prior, err := a.store.LastEventWithGPSBefore(ctx, event.UserID, event.CheckInTime)
	if err != nil {
		a.log.Warn("fraud prior event lookup failed",
			zap.Int("user_id", event.UserID),
			zap.Error(err))
		prior = nil
	}

	ind := Analyze(event, prior, mockLocation, tz)

	if ind.Score > AlertScore {
		a.log.Warn("suspicious attendance",
			zap.Int("user_id", event.UserID),
			zap.String("attendance_id", event.ID.String()),
			zap.Int("score", ind.Score),
			zap.Bool("mock_location", ind.MockLocation),
			zap.Bool("impossible_travel", ind.ImpossibleTravel),
			zap.Bool("unusual_time", ind.UnusualTime))
	}

	return ind
}

// Analyze runs every check and computes the capped weighted score.
func Analyze(event, prior *entity.AttendanceEvent, mockLocation bool, tz *time.Location) entity.FraudIndicators {
	if tz == nil {
		tz = time.UTC
	}

	ind := entity.FraudIndicators{
		MockLocation:     mockLocation,
		ImpossibleTravel: ImpossibleTravel(prior, event),
		UnusualTime:      UnusualTime(event.CheckInTime.In(tz)),
		// No IP geolocation source is wired in.
		IPMismatch: false,
	}
	ind.Score = Score(ind)

	return ind
}

// ImpossibleTravel reports whether moving from prior's check-in to event's
// check-in implies more than MaxSpeedKmh.
func ImpossibleTravel(prior, event *entity.AttendanceEvent) bool {
	if prior == nil || event == nil {
		return false
	}

	hours := event.CheckInTime.Sub(prior.CheckInTime).Hours()
	if hours <= 0 {
		return false
	}

	km := geofence.DistanceMeters(
		prior.CheckInLatitude, prior.CheckInLongitude,
		event.CheckInLatitude, event.CheckInLongitude,
	) / 1000

	return km/hours > MaxSpeedKmh
}

// UnusualTime flags local times before 06:00, from 23:00, and weekends.
func UnusualTime(local time.Time) bool {
	hour := local.Hour()
	if hour < 6 || hour > 22 {
		return true
	}

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// Score sums the weights of the raised indicators, capped at 100.
func Score(ind entity.FraudIndicators) int {
	score := 0
	if ind.MockLocation {
		score += WeightMockLocation
	}
	if ind.ImpossibleTravel {
		score += WeightImpossibleTravel
	}
	if ind.UnusualTime {
		score += WeightUnusualTime
	}
	if ind.IPMismatch {
		score += WeightIPMismatch
	}

	if score > maxScore {
		return maxScore
	}
	return score
}
