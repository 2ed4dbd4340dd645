package user

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
	"golang.org/x/crypto/bcrypt"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// GetUser loads a user with the owning tenant's time zone.
func (r Repository) GetUser(ctx context.Context, id int) (entity.User, error) {
	var detail entity.User

	err := r.Querier(ctx).NewSelect().
		Model(&detail).
		ColumnExpr("u.*").
		ColumnExpr("t.timezone").
		Join("JOIN tenants AS t ON t.id = u.tenant_id").
		Where("u.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "user"), http.StatusNotFound)
	}
	if err != nil {
		return entity.User{}, web.NewRequestError(errors.Wrap(err, "selecting user"), http.StatusInternalServerError)
	}

	return detail, nil
}

// TenantAdmins returns the admins that receive fraud alerts.
func (r Repository) TenantAdmins(ctx context.Context, tenantID int) ([]entity.User, error) {
	var list []entity.User

	err := r.Querier(ctx).NewSelect().
		Model(&list).
		Where("u.tenant_id = ?", tenantID).
		Where("u.role IN (?, ?)", auth.RoleAdmin, auth.RoleSuperAdmin).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting tenant admins")
	}

	return list, nil
}

func (r Repository) GetByEmployeeID(ctx context.Context, tenantID int, employeeID string) (entity.User, error) {
	var detail entity.User

	err := r.Querier(ctx).NewSelect().
		Model(&detail).
		Where("u.tenant_id = ? AND u.employee_id = ?", tenantID, employeeID).
		Scan(ctx)
	if err != nil {
		return entity.User{}, web.NewRequestError(errors.New("employee not found"), http.StatusUnauthorized)
	}

	return detail, nil
}

// EmployeeIDs returns the employee ids already used in the caller's tenant.
func (r Repository) EmployeeIDs(ctx context.Context) (map[string]struct{}, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.Querier(ctx).NewSelect().
		Model((*entity.User)(nil)).
		Column("employee_id").
		Where("u.tenant_id = ? AND u.employee_id IS NOT NULL", claims.TenantId).
		Scan(ctx, &ids)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting employee ids"), http.StatusInternalServerError)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return nil, 0, err
	}

	q := r.Querier(ctx).NewSelect().
		Model((*entity.User)(nil)).
		ColumnExpr("u.id, u.employee_id, u.full_name, u.role, u.phone, u.points_balance").
		ColumnExpr("coalesce(u.face_photo_url, '') <> '' AS has_face_photo").
		Where("u.tenant_id = ?", claims.TenantId)

	if filter.Search != nil {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		q = q.Where("(u.employee_id ILIKE ? OR u.full_name ILIKE ?)", search, search)
	}
	if filter.Role != nil {
		q = q.Where("u.role = ?", *filter.Role)
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
	count, err := q.Order("u.id").ScanAndCount(ctx, &list)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting users"), http.StatusInternalServerError)
	}

	return list, count, nil
}

// GetDetailById returns a user of the caller's tenant. Employees may only
// read themselves.
func (r Repository) GetDetailById(ctx context.Context, id int) (entity.User, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return entity.User{}, err
	}

	if claims.Role == auth.RoleEmployee && claims.UserId != id {
		return entity.User{}, web.NewRequestError(errors.New("attempted action is not allowed"), http.StatusForbidden)
	}

	detail, err := r.GetUser(ctx, id)
	if err != nil {
		return entity.User{}, err
	}
	if detail.TenantID != claims.TenantId {
		return entity.User{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "user"), http.StatusNotFound)
	}

	return detail, nil
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (entity.User, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return entity.User{}, err
	}

	if err := r.ValidateStruct(&request, "EmployeeID", "Password", "Role"); err != nil {
		return entity.User{}, err
	}

	if err := checkRole(*request.Role); err != nil {
		return entity.User{}, err
	}

	exists, err := r.Querier(ctx).NewSelect().
		Model((*entity.User)(nil)).
		Where("u.tenant_id = ? AND u.employee_id = ?", claims.TenantId, *request.EmployeeID).
		Exists(ctx)
	if err != nil {
		return entity.User{}, web.NewRequestError(errors.Wrap(err, "employee_id check"), http.StatusInternalServerError)
	}
	if exists {
		return entity.User{}, web.NewRequestError(errors.New("employee_id is used"), http.StatusBadRequest)
	}

	hash, err := hashPassword(*request.Password)
	if err != nil {
		return entity.User{}, err
	}

	user := entity.User{
		TenantID:     claims.TenantId,
		EmployeeID:   request.EmployeeID,
		Password:     &hash,
		Role:         request.Role,
		FullName:     request.FullName,
		Phone:        request.Phone,
		Locale:       request.Locale,
		FacePhotoURL: request.FacePhotoURL,
	}
	user.CreatedAt = time.Now()
	user.CreatedBy = &claims.UserId

	_, err = r.Querier(ctx).NewInsert().
		Model(&user).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return entity.User{}, web.NewRequestError(errors.Wrap(err, "creating user"), http.StatusInternalServerError)
	}

	return user, nil
}

func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest) error {
	if err := r.ValidateStruct(&request, "ID"); err != nil {
		return err
	}

	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	q := r.Querier(ctx).NewUpdate().
		Table("users").
		Where("deleted_at IS NULL AND id = ? AND tenant_id = ?", request.ID, claims.TenantId)

	if request.Password != nil {
		hash, err := hashPassword(*request.Password)
		if err != nil {
			return err
		}
		q.Set("password = ?", hash)
	}
	if request.Role != nil {
		if err := checkRole(*request.Role); err != nil {
			return err
		}
		q.Set("role = ?", *request.Role)
	}
	if request.FullName != nil {
		q.Set("full_name = ?", *request.FullName)
	}
	if request.Phone != nil {
		q.Set("phone = ?", *request.Phone)
	}
	if request.Locale != nil {
		q.Set("locale = ?", *request.Locale)
	}
	if request.FacePhotoURL != nil {
		q.Set("face_photo_url = ?", *request.FacePhotoURL)
	}

	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	res, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating user"), http.StatusInternalServerError)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "user"), http.StatusNotFound)
	}

	return nil
}

func (r Repository) Delete(ctx context.Context, id int) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	return r.DeleteRow(ctx, "users", id, claims.TenantId)
}

func hashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", web.NewRequestError(errors.New("password must be at least 6 characters"), http.StatusBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", web.NewRequestError(errors.Wrap(err, "hashing password"), http.StatusInternalServerError)
	}
	return string(hash), nil
}

func checkRole(role string) error {
	switch role {
	case auth.RoleAdmin, auth.RoleEmployee:
		return nil
	}
	return web.NewRequestError(errors.Errorf("invalid role %q", role), http.StatusBadRequest)
}
