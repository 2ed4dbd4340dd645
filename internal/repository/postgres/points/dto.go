package points

import (
	"time"

	"attendance/workforce/internal/entity"
)

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	UserID *int
	From   *string
	To     *string
}

type BalanceResponse struct {
	UserID        int     `json:"user_id"        bun:"id"`
	EmployeeID    *string `json:"employee_id"    bun:"employee_id"`
	FullName      *string `json:"full_name"      bun:"full_name"`
	PointsBalance int     `json:"points_balance" bun:"points_balance"`
}

type AdjustRequest struct {
	UserID      *int    `json:"user_id"     form:"user_id"`
	Points      *int    `json:"points"      form:"points"`
	Description *string `json:"description" form:"description"`
}

// Statement is a user's balance with the ledger entries of a period.
type Statement struct {
	BalanceResponse
	Timezone string
	From     *time.Time
	To       *time.Time
	Entries  []entity.PointsLedgerEntry
}
