// Package points computes the reward for each attendance leg from the
// tenant's point rules.
package points

import (
	"context"
	"time"

	"attendance/workforce/internal/entity"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultCheckIn  = 10
	DefaultCheckOut = 0
)

type Store interface {
	GetLocation(ctx context.Context, tenantID, id int) (entity.Location, error)
	// ActiveRules returns the tenant's active rules with decoded conditions.
	ActiveRules(ctx context.Context, tenantID int) ([]entity.PointRule, error)
	// CountAttendedDays counts distinct local calendar days since the given
	// instant on which the user has a valid event.
	CountAttendedDays(ctx context.Context, userID int, since time.Time, tz *time.Location) (int, error)
}

// Savepointer runs fn so that a failed statement inside it is rolled back
// without aborting the surrounding transaction.
type Savepointer interface {
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// Isolated wraps every read of store in its own savepoint. The engine is
// called inside the event's write transaction; with Isolated a failed read
// degrades to the default points and the event writes still commit.
func Isolated(store Store, sp Savepointer) Store {
	return isolated{store: store, sp: sp}
}

type isolated struct {
	store Store
	sp    Savepointer
}

func (s isolated) GetLocation(ctx context.Context, tenantID, id int) (loc entity.Location, err error) {
	err = s.sp.Savepoint(ctx, func(ctx context.Context) error {
		loc, err = s.store.GetLocation(ctx, tenantID, id)
		return err
	})
	return loc, err
}

func (s isolated) ActiveRules(ctx context.Context, tenantID int) (rules []entity.PointRule, err error) {
	err = s.sp.Savepoint(ctx, func(ctx context.Context) error {
		rules, err = s.store.ActiveRules(ctx, tenantID)
		return err
	})
	return rules, err
}

func (s isolated) CountAttendedDays(ctx context.Context, userID int, since time.Time, tz *time.Location) (days int, err error) {
	err = s.sp.Savepoint(ctx, func(ctx context.Context) error {
		days, err = s.store.CountAttendedDays(ctx, userID, since, tz)
		return err
	})
	return days, err
}

type Engine struct {
	store     Store
	defaultTZ *time.Location
	log       *zap.Logger
}

func NewEngine(store Store, defaultTZ *time.Location, log *zap.Logger) *Engine {
	if defaultTZ == nil {
		defaultTZ = time.UTC
	}
	return &Engine{store: store, defaultTZ: defaultTZ, log: log}
}

// Evaluate returns the points for one leg of the event. It never fails:
// lookup errors fall back to the leg's default and rule errors count as 0.
func (e *Engine) Evaluate(ctx context.Context, leg entity.Leg, event *entity.AttendanceEvent, user entity.User) int {
	log := e.log.With(
		zap.String("leg", string(leg)),
		zap.String("attendance_id", event.ID.String()),
		zap.Int("user_id", user.ID))

	if custom, ok := e.customPoints(ctx, leg, event, log); ok {
		return custom
	}

	rules, err := e.store.ActiveRules(ctx, event.TenantID)
	if err != nil {
		log.Error("loading point rules", zap.Error(err))
		return defaultFor(leg)
	}
	if len(rules) == 0 {
		return defaultFor(leg)
	}

	tz := user.TimeLocation(e.defaultTZ)
	total := 0
	for _, rule := range rules {
		pts, err := e.apply(ctx, leg, rule, event, tz)
		if err != nil {
			log.Warn("point rule failed",
				zap.Int("rule_id", rule.ID),
				zap.String("rule_type", string(rule.RuleType)),
				zap.Error(err))
			continue
		}
		total += pts
	}

	if total == 0 && leg == entity.LegCheckIn {
		return DefaultCheckIn
	}
	return total
}

// customPoints applies the override of the location resolved for this leg.
func (e *Engine) customPoints(ctx context.Context, leg entity.Leg, event *entity.AttendanceEvent, log *zap.Logger) (int, bool) {
	locID := event.LocationFor(leg)
	if locID == nil {
		return 0, false
	}

	loc, err := e.store.GetLocation(ctx, event.TenantID, *locID)
	if err != nil {
		log.Warn("loading location for custom points", zap.Int("location_id", *locID), zap.Error(err))
		return 0, false
	}

	if !loc.UseCustomPoints {
		return 0, false
	}
	return loc.CustomPoints, true
}

func (e *Engine) apply(ctx context.Context, leg entity.Leg, rule entity.PointRule, event *entity.AttendanceEvent, tz *time.Location) (int, error) {
	if rule.Conditions == nil {
		if err := rule.Decode(); err != nil {
			return 0, err
		}
	}

	switch c := rule.Conditions.(type) {
	case entity.CheckInConditions:
		if leg != entity.LegCheckIn {
			return 0, nil
		}
		return rule.PointsAmount, nil

	case entity.OnTimeConditions:
		if leg != entity.LegCheckIn {
			return 0, nil
		}
		if OnTime(event.CheckInTime, c.Deadline, tz) {
			return rule.PointsAmount, nil
		}
		return 0, nil

	case entity.StreakConditions:
		if leg != entity.LegCheckIn {
			return 0, nil
		}
		since := StreakWindowStart(event.CheckInTime, c.Days, tz)
		days, err := e.store.CountAttendedDays(ctx, event.UserID, since, tz)
		if err != nil {
			return 0, errors.Wrap(err, "counting attended days")
		}
		if days >= c.Days {
			return rule.PointsAmount, nil
		}
		return 0, nil

	case entity.FullDayConditions:
		if leg != entity.LegCheckOut || event.CheckOutTime == nil {
			return 0, nil
		}
		if event.HoursWorked() >= c.Hours {
			return rule.PointsAmount, nil
		}
		return 0, nil
	}

	return 0, errors.Errorf("unsupported conditions %T", rule.Conditions)
}

// OnTime reports whether the local time of day of at is not after deadline.
// Both sides are zero padded HH:MM:SS so string order is time order.
func OnTime(at time.Time, deadline string, tz *time.Location) bool {
	return at.In(tz).Format("15:04:05") <= deadline
}

// StreakWindowStart is local midnight of the day at falls on, minus days.
func StreakWindowStart(at time.Time, days int, tz *time.Location) time.Time {
	local := at.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day()-days, 0, 0, 0, 0, tz)
}

func defaultFor(leg entity.Leg) int {
	if leg == entity.LegCheckIn {
		return DefaultCheckIn
	}
	return DefaultCheckOut
}
