package entity

import (
	"encoding/json"
	"testing"
)

func TestDecodeConditions(t *testing.T) {
	tests := []struct {
		name    string
		typ     RuleType
		raw     string
		want    RuleConditions
		wantErr bool
	}{
		{name: "check_in ignores payload", typ: RuleCheckIn, raw: `{"anything":1}`, want: CheckInConditions{}},
		{name: "on_time full clock", typ: RuleOnTime, raw: `{"deadline":"09:00:00"}`, want: OnTimeConditions{Deadline: "09:00:00"}},
		{name: "on_time single digit hour", typ: RuleOnTime, raw: `{"deadline":"8:30"}`, want: OnTimeConditions{Deadline: "08:30:00"}},
		{name: "on_time garbage", typ: RuleOnTime, raw: `{"deadline":"nine"}`, wantErr: true},
		{name: "on_time HH:MM", typ: RuleOnTime, raw: `{"deadline":"08:30"}`, want: OnTimeConditions{Deadline: "08:30:00"}},
		{name: "on_time missing deadline", typ: RuleOnTime, raw: `{}`, wantErr: true},
		{name: "streak", typ: RuleStreak, raw: `{"days":5}`, want: StreakConditions{Days: 5}},
		{name: "streak zero days", typ: RuleStreak, raw: `{"days":0}`, wantErr: true},
		{name: "full_day default hours", typ: RuleFullDay, raw: ``, want: FullDayConditions{Hours: 8}},
		{name: "full_day hours", typ: RuleFullDay, raw: `{"hours":6.5}`, want: FullDayConditions{Hours: 6.5}},
		{name: "full_day negative", typ: RuleFullDay, raw: `{"hours":-1}`, wantErr: true},
		{name: "unknown type", typ: RuleType("bonus"), raw: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeConditions(tt.typ, json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
