package location

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
	"attendance/workforce/internal/service/geofence"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// ActiveLocations returns the tenant's active locations in id order.
func (r Repository) ActiveLocations(ctx context.Context, tenantID int) ([]entity.Location, error) {
	var list []entity.Location

	err := r.Querier(ctx).NewSelect().
		Model(&list).
		Where("l.tenant_id = ?", tenantID).
		Where("l.is_active").
		Order("l.id").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting active locations")
	}

	return list, nil
}

// HasLocations reports whether the tenant has any non-deleted location,
// active or not.
func (r Repository) HasLocations(ctx context.Context, tenantID int) (bool, error) {
	exists, err := r.Querier(ctx).NewSelect().
		Model((*entity.Location)(nil)).
		Where("l.tenant_id = ?", tenantID).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, "checking tenant locations")
	}

	return exists, nil
}

func (r Repository) GetLocation(ctx context.Context, tenantID, id int) (entity.Location, error) {
	var detail entity.Location

	err := r.Querier(ctx).NewSelect().
		Model(&detail).
		Where("l.id = ? AND l.tenant_id = ?", id, tenantID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Location{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "location"), http.StatusNotFound)
	}
	if err != nil {
		return entity.Location{}, web.NewRequestError(errors.Wrap(err, "selecting location"), http.StatusInternalServerError)
	}

	return detail, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := r.Querier(ctx).NewSelect().
		Model((*entity.Location)(nil)).
		ColumnExpr("l.id, l.name, l.latitude, l.longitude, l.radius, l.is_active").
		ColumnExpr("l.use_custom_points, l.custom_points").
		ColumnExpr("CASE WHEN jsonb_typeof(l.polygon_coords) = 'array' THEN jsonb_array_length(l.polygon_coords) ELSE 0 END AS polygon_vertices").
		Where("l.tenant_id = ?", claims.TenantId)

	if filter.Search != nil {
		q = q.Where("l.name ILIKE ?", "%"+strings.TrimSpace(*filter.Search)+"%")
	}
	if filter.IsActive != nil {
		q = q.Where("l.is_active = ?", *filter.IsActive)
	}

	if filter.Page != nil && filter.Limit != nil {
		offset := (*filter.Page - 1) * (*filter.Limit)
		filter.Offset = &offset
	}
	if filter.Limit != nil {
		q = q.Limit(*filter.Limit)
	}
	if filter.Offset != nil {
		q = q.Offset(*filter.Offset)
	}

	var list []GetListResponse
	count, err := q.Order("l.id").ScanAndCount(ctx, &list)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting locations"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id int) (entity.Location, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return entity.Location{}, err
	}

	return r.GetLocation(ctx, claims.TenantId, id)
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (entity.Location, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return entity.Location{}, err
	}

	if err := r.ValidateStruct(&request, "Name", "Latitude", "Longitude"); err != nil {
		return entity.Location{}, err
	}

	location := entity.Location{
		TenantID:      claims.TenantId,
		Name:          strings.TrimSpace(*request.Name),
		Latitude:      *request.Latitude,
		Longitude:     *request.Longitude,
		PolygonCoords: request.PolygonCoords,
		IsActive:      true,
	}
	if request.RadiusMeters != nil {
		location.RadiusMeters = *request.RadiusMeters
	}
	if request.IsActive != nil {
		location.IsActive = *request.IsActive
	}
	if request.UseCustomPoints != nil {
		location.UseCustomPoints = *request.UseCustomPoints
	}
	if request.CustomPoints != nil {
		location.CustomPoints = *request.CustomPoints
	}

	if err := validate(location); err != nil {
		return entity.Location{}, err
	}
	if err := r.checkName(ctx, claims.TenantId, location.Name, 0); err != nil {
		return entity.Location{}, err
	}

	location.CreatedBy = &claims.UserId
	location.CreatedAt = time.Now()

	_, err = r.Querier(ctx).NewInsert().Model(&location).Returning("id").Exec(ctx)
	if err != nil {
		return entity.Location{}, web.NewRequestError(errors.Wrap(err, "creating location"), http.StatusInternalServerError)
	}

	return location, nil
}

// UpdateAll replaces every editable column.
func (r Repository) UpdateAll(ctx context.Context, request UpdateRequest) error {
	if err := r.ValidateStruct(&request, "ID", "Name", "Latitude", "Longitude", "IsActive"); err != nil {
		return err
	}

	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	location := entity.Location{
		Name:          strings.TrimSpace(*request.Name),
		Latitude:      *request.Latitude,
		Longitude:     *request.Longitude,
		PolygonCoords: request.PolygonCoords,
		IsActive:      *request.IsActive,
	}
	if request.RadiusMeters != nil {
		location.RadiusMeters = *request.RadiusMeters
	}
	if request.UseCustomPoints != nil {
		location.UseCustomPoints = *request.UseCustomPoints
	}
	if request.CustomPoints != nil {
		location.CustomPoints = *request.CustomPoints
	}

	if err := validate(location); err != nil {
		return err
	}
	if err := r.checkName(ctx, claims.TenantId, location.Name, request.ID); err != nil {
		return err
	}

	q := r.Querier(ctx).NewUpdate().
		Table("locations").
		Where("deleted_at IS NULL AND id = ? AND tenant_id = ?", request.ID, claims.TenantId).
		Set("name = ?", location.Name).
		Set("latitude = ?", location.Latitude).
		Set("longitude = ?", location.Longitude).
		Set("radius = ?", location.RadiusMeters).
		Set("polygon_coords = ?", polygonValue(location.PolygonCoords)).
		Set("is_active = ?", location.IsActive).
		Set("use_custom_points = ?", location.UseCustomPoints).
		Set("custom_points = ?", location.CustomPoints).
		Set("updated_at = ?", time.Now()).
		Set("updated_by = ?", claims.UserId)

	return r.execUpdate(ctx, q)
}

// UpdateColumns changes only the provided columns.
func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest) error {
	if err := r.ValidateStruct(&request, "ID"); err != nil {
		return err
	}

	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	current, err := r.GetLocation(ctx, claims.TenantId, request.ID)
	if err != nil {
		return err
	}

	q := r.Querier(ctx).NewUpdate().
		Table("locations").
		Where("deleted_at IS NULL AND id = ? AND tenant_id = ?", request.ID, claims.TenantId)

	if request.Name != nil {
		current.Name = strings.TrimSpace(*request.Name)
		if err := r.checkName(ctx, claims.TenantId, current.Name, request.ID); err != nil {
			return err
		}
		q.Set("name = ?", current.Name)
	}
	if request.Latitude != nil {
		current.Latitude = *request.Latitude
		q.Set("latitude = ?", current.Latitude)
	}
	if request.Longitude != nil {
		current.Longitude = *request.Longitude
		q.Set("longitude = ?", current.Longitude)
	}
	if request.RadiusMeters != nil {
		current.RadiusMeters = *request.RadiusMeters
		q.Set("radius = ?", current.RadiusMeters)
	}
	if request.PolygonCoords != nil {
		current.PolygonCoords = request.PolygonCoords
		q.Set("polygon_coords = ?", polygonValue(current.PolygonCoords))
	}
	if request.IsActive != nil {
		q.Set("is_active = ?", *request.IsActive)
	}
	if request.UseCustomPoints != nil {
		current.UseCustomPoints = *request.UseCustomPoints
		q.Set("use_custom_points = ?", current.UseCustomPoints)
	}
	if request.CustomPoints != nil {
		current.CustomPoints = *request.CustomPoints
		q.Set("custom_points = ?", current.CustomPoints)
	}

	if err := validate(current); err != nil {
		return err
	}

	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	return r.execUpdate(ctx, q)
}

func (r Repository) Delete(ctx context.Context, id int) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	return r.DeleteRow(ctx, "locations", id, claims.TenantId)
}

func (r Repository) execUpdate(ctx context.Context, q *bun.UpdateQuery) error {
	res, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating location"), http.StatusInternalServerError)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "location"), http.StatusNotFound)
	}

	return nil
}

func (r Repository) checkName(ctx context.Context, tenantID int, name string, exceptID int) error {
	exists, err := r.Querier(ctx).NewSelect().
		Model((*entity.Location)(nil)).
		Where("l.tenant_id = ? AND lower(l.name) = lower(?) AND l.id <> ?", tenantID, name, exceptID).
		Exists(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "location name check"), http.StatusInternalServerError)
	}
	if exists {
		return web.NewRequestError(errors.New("location name is used"), http.StatusBadRequest)
	}

	return nil
}

// validate rejects locations that could never admit a coordinate.
func validate(l entity.Location) error {
	if !geofence.ValidCoordinate(l.Latitude, l.Longitude) {
		return web.NewRequestError(errors.New("latitude and longitude must be valid coordinates"), http.StatusBadRequest)
	}
	if l.RadiusMeters < 0 {
		return web.NewRequestError(errors.New("radius must not be negative"), http.StatusBadRequest)
	}
	if len(l.PolygonCoords) > 0 {
		if len(l.PolygonCoords) < 3 {
			return web.NewRequestError(errors.New("polygon_coords needs at least 3 vertices"), http.StatusBadRequest)
		}
		for _, c := range l.PolygonCoords {
			if !geofence.ValidCoordinate(c.Lat, c.Lng) {
				return web.NewRequestError(errors.New("polygon_coords contains an invalid vertex"), http.StatusBadRequest)
			}
		}
	}
	if l.CustomPoints < 0 {
		return web.NewRequestError(errors.New("custom_points must not be negative"), http.StatusBadRequest)
	}

	return nil
}

// polygonValue stores an empty polygon as NULL.
func polygonValue(coords []entity.Coordinate) interface{} {
	if len(coords) == 0 {
		return nil
	}
	return coords
}
