package tenant

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/repository/postgresql"
	"attendance/workforce/internal/repository/postgres"

	"github.com/pkg/errors"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// GetInfo returns the caller's tenant.
func (r Repository) GetInfo(ctx context.Context) (entity.Tenant, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return entity.Tenant{}, err
	}

	var detail entity.Tenant

	err = r.Querier(ctx).NewSelect().Model(&detail).Where("t.id = ?", claims.TenantId).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Tenant{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "tenant"), http.StatusNotFound)
	}
	if err != nil {
		return entity.Tenant{}, web.NewRequestError(errors.Wrap(err, "selecting tenant"), http.StatusInternalServerError)
	}

	return detail, nil
}

// UpdateColumns changes the tenant's display name or time zone. The time
// zone drives on_time, streak and unusual-time evaluation.
func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	q := r.Querier(ctx).NewUpdate().
		Table("tenants").
		Where("deleted_at IS NULL AND id = ?", claims.TenantId)

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return web.NewRequestError(errors.New("name must not be empty"), http.StatusBadRequest)
		}
		q.Set("name = ?", name)
	}
	if request.Timezone != nil {
		if _, err := time.LoadLocation(*request.Timezone); err != nil || *request.Timezone == "" || *request.Timezone == "Local" {
			return web.NewRequestError(errors.Errorf("unknown timezone %q", *request.Timezone), http.StatusBadRequest)
		}
		q.Set("timezone = ?", *request.Timezone)
	}

	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	if _, err = q.Exec(ctx); err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating tenant"), http.StatusInternalServerError)
	}

	return nil
}
