package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type LedgerType string

const (
	LedgerEarn   LedgerType = "earn"
	LedgerAdjust LedgerType = "adjust"
)

// PointsLedgerEntry is one append-only row backing a user's balance.
type PointsLedgerEntry struct {
	bun.BaseModel `bun:"table:points_ledger,alias:pl"`

	ID           int        `json:"id"                      bun:"id,pk,autoincrement"`
	TenantID     int        `json:"tenant_id"               bun:"tenant_id,notnull"`
	UserID       int        `json:"user_id"                 bun:"user_id,notnull"`
	AttendanceID *uuid.UUID `json:"attendance_id,omitempty" bun:"attendance_id,type:uuid"`
	Type         LedgerType `json:"type"                    bun:"type,notnull"`
	Points       int        `json:"points"                  bun:"points,notnull"`
	BalanceAfter int        `json:"balance_after"           bun:"balance_after,notnull"`
	Description  string     `json:"description"             bun:"description"`
	CreatedAt    time.Time  `json:"created_at"              bun:"created_at,nullzero,notnull,default:now()"`
}
