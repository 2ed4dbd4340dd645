package pointRule

import (
	"context"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/pointRule"
)

type PointRule interface {
	GetList(ctx context.Context, filter pointRule.Filter) ([]entity.PointRule, int, error)
	GetDetailById(ctx context.Context, id int) (entity.PointRule, error)
	Create(ctx context.Context, request pointRule.CreateRequest) (entity.PointRule, error)
	UpdateAll(ctx context.Context, request pointRule.UpdateRequest) error
	UpdateColumns(ctx context.Context, request pointRule.UpdateRequest) error
	Delete(ctx context.Context, id int) error
}
