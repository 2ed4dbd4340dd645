package location

import (
	"context"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/location"
)

type Location interface {
	GetList(ctx context.Context, filter location.Filter) ([]location.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id int) (entity.Location, error)
	Create(ctx context.Context, request location.CreateRequest) (entity.Location, error)
	UpdateAll(ctx context.Context, request location.UpdateRequest) error
	UpdateColumns(ctx context.Context, request location.UpdateRequest) error
	Delete(ctx context.Context, id int) error
}

// Cache drops a tenant's cached active locations.
type Cache interface {
	Invalidate(ctx context.Context, tenantID int)
}
