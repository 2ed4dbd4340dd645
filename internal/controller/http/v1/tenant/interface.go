package tenant

import (
	"context"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/tenant"
)

type Tenant interface {
	GetInfo(ctx context.Context) (entity.Tenant, error)
	UpdateColumns(ctx context.Context, request tenant.UpdateRequest) error
}
