package points

import (
	"context"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/points"
)

type Points interface {
	GetBalance(ctx context.Context, userID *int) (points.BalanceResponse, error)
	GetLedger(ctx context.Context, filter points.Filter) ([]entity.PointsLedgerEntry, int, error)
	GetStatement(ctx context.Context, filter points.Filter) (points.Statement, error)
	Adjust(ctx context.Context, request points.AdjustRequest) (entity.PointsLedgerEntry, error)
}
