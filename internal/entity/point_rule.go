package entity

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RuleType string

const (
	RuleCheckIn RuleType = "check_in"
	RuleOnTime  RuleType = "on_time"
	RuleStreak  RuleType = "streak"
	RuleFullDay RuleType = "full_day"
)

// DefaultFullDayHours applies when a full_day rule omits hours.
const DefaultFullDayHours = 8

// RuleConditions is the typed condition payload of a PointRule. The concrete
// type is determined by the rule type.
type RuleConditions interface {
	RuleType() RuleType
}

type CheckInConditions struct{}

// OnTimeConditions holds a deadline normalised to HH:MM:SS.
type OnTimeConditions struct {
	Deadline string `json:"deadline"`
}

type StreakConditions struct {
	Days int `json:"days"`
}

type FullDayConditions struct {
	Hours float64 `json:"hours"`
}

func (CheckInConditions) RuleType() RuleType { return RuleCheckIn }
func (OnTimeConditions) RuleType() RuleType  { return RuleOnTime }
func (StreakConditions) RuleType() RuleType  { return RuleStreak }
func (FullDayConditions) RuleType() RuleType { return RuleFullDay }

type PointRule struct {
	bun.BaseModel `bun:"table:point_rules,alias:pr"`

	BasicEntity
	TenantID      int             `json:"tenant_id"     bun:"tenant_id,notnull"`
	Name          string          `json:"name"          bun:"name"`
	RuleType      RuleType        `json:"rule_type"     bun:"rule_type,notnull"`
	PointsAmount  int             `json:"points_amount" bun:"points_amount,notnull"`
	RawConditions json.RawMessage `json:"-"             bun:"conditions,type:jsonb"`
	IsActive      bool            `json:"is_active"     bun:"is_active,notnull"`

	Conditions RuleConditions `json:"conditions" bun:"-"`
}

// Decode parses RawConditions into Conditions according to RuleType.
func (r *PointRule) Decode() error {
	c, err := DecodeConditions(r.RuleType, r.RawConditions)
	if err != nil {
		return errors.Wrapf(err, "rule %d", r.ID)
	}
	r.Conditions = c
	return nil
}

// DecodeConditions validates raw against the shape required by t.
func DecodeConditions(t RuleType, raw json.RawMessage) (RuleConditions, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	switch t {
	case RuleCheckIn:
		return CheckInConditions{}, nil

	case RuleOnTime:
		var c OnTimeConditions
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, errors.Wrap(err, "on_time conditions")
		}
		deadline, err := NormalizeClock(c.Deadline)
		if err != nil {
			return nil, errors.Wrap(err, "on_time deadline")
		}
		c.Deadline = deadline
		return c, nil

	case RuleStreak:
		var c StreakConditions
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, errors.Wrap(err, "streak conditions")
		}
		if c.Days < 1 {
			return nil, errors.New("streak days must be at least 1")
		}
		return c, nil

	case RuleFullDay:
		var c FullDayConditions
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, errors.Wrap(err, "full_day conditions")
		}
		if c.Hours < 0 {
			return nil, errors.New("full_day hours must not be negative")
		}
		if c.Hours == 0 {
			c.Hours = DefaultFullDayHours
		}
		return c, nil
	}

	return nil, errors.Errorf("unknown rule type %q", t)
}

// NormalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS, so that
// deadlines compare lexicographically.
func NormalizeClock(s string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", errors.Errorf("invalid time of day %q", s)
}
