package pointRule

import (
	"encoding/json"
	"testing"

	"attendance/workforce/internal/entity"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecodeActive_SkipsAndLogsInvalidRows(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	good := entity.PointRule{RuleType: entity.RuleOnTime, PointsAmount: 5, RawConditions: json.RawMessage(`{"deadline":"08:00"}`)}
	good.ID = 1
	bad := entity.PointRule{RuleType: entity.RuleStreak, PointsAmount: 5, RawConditions: json.RawMessage(`{"days":"many"}`)}
	bad.ID = 2

	got := decodeActive([]entity.PointRule{good, bad}, zap.New(core))

	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("rules = %+v, want only rule 1", got)
	}
	if _, ok := got[0].Conditions.(entity.OnTimeConditions); !ok {
		t.Errorf("conditions = %T, want OnTimeConditions", got[0].Conditions)
	}

	entries := logs.FilterField(zap.Int("rule_id", 2)).All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries for rule 2, want 1", len(entries))
	}
}
