package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/repository/postgresql"
	"attendance/workforce/internal/repository/postgres"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// OpenEvent returns the user's most recently created open event, or nil.
func (r Repository) OpenEvent(ctx context.Context, userID int) (*entity.AttendanceEvent, error) {
	var event entity.AttendanceEvent

	err := r.Querier(ctx).NewSelect().
		Model(&event).
		Where("ae.user_id = ?", userID).
		Where("ae.check_out_time IS NULL").
		Order("ae.created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting open attendance"), http.StatusInternalServerError)
	}

	return &event, nil
}

func (r Repository) GetEvent(ctx context.Context, tenantID int, id uuid.UUID) (*entity.AttendanceEvent, error) {
	var event entity.AttendanceEvent

	err := r.Querier(ctx).NewSelect().
		Model(&event).
		Where("ae.id = ? AND ae.tenant_id = ?", id, tenantID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "attendance"), http.StatusNotFound)
	}
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting attendance"), http.StatusInternalServerError)
	}

	return &event, nil
}

func (r Repository) CreateEvent(ctx context.Context, event *entity.AttendanceEvent) error {
	_, err := r.Querier(ctx).NewInsert().Model(event).Exec(ctx)
	if postgres.IsUniqueViolation(err) {
		return web.NewRequestError(entity.ErrAlreadyCheckedIn, http.StatusConflict)
	}
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "creating attendance"), http.StatusInternalServerError)
	}

	return nil
}

// UpdateCheckOut writes the checkout leg if the event is still open.
func (r Repository) UpdateCheckOut(ctx context.Context, event *entity.AttendanceEvent) error {
	res, err := r.Querier(ctx).NewUpdate().
		Model(event).
		Column("state", "check_out_time", "check_out_latitude", "check_out_longitude", "check_out_location_id", "updated_at").
		Where("ae.id = ?", event.ID).
		Where("ae.check_out_time IS NULL").
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating attendance"), http.StatusInternalServerError)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return web.NewRequestError(entity.ErrNoActiveCheckIn, http.StatusBadRequest)
	}

	return nil
}

func (r Repository) SetPoints(ctx context.Context, id uuid.UUID, points int) error {
	_, err := r.Querier(ctx).NewUpdate().
		Table("attendance_events").
		Set("points_earned = ?", points).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating attendance points"), http.StatusInternalServerError)
	}

	return nil
}

// LastEventWithGPSBefore is the fraud analyzer's reference event.
func (r Repository) LastEventWithGPSBefore(ctx context.Context, userID int, before time.Time) (*entity.AttendanceEvent, error) {
	var event entity.AttendanceEvent

	err := r.Querier(ctx).NewSelect().
		Model(&event).
		Where("ae.user_id = ?", userID).
		Where("ae.check_in_time < ?", before).
		Where("ae.check_in_latitude IS NOT NULL AND ae.check_in_longitude IS NOT NULL").
		Order("ae.check_in_time DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting previous attendance")
	}

	return &event, nil
}

// CountAttendedDays counts the distinct local days since the given instant
// with a valid check-in.
func (r Repository) CountAttendedDays(ctx context.Context, userID int, since time.Time, tz *time.Location) (int, error) {
	var count int

	err := r.Querier(ctx).NewSelect().
		TableExpr("attendance_events AS ae").
		ColumnExpr("count(DISTINCT (ae.check_in_time AT TIME ZONE ?)::date)", tz.String()).
		Where("ae.user_id = ?", userID).
		Where("ae.is_valid").
		Where("ae.check_in_time >= ?", since).
		Scan(ctx, &count)
	if err != nil {
		return 0, errors.Wrap(err, "counting attended days")
	}

	return count, nil
}

// GetList lists the tenant's events. Employees only see their own.
func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return nil, 0, err
	}

	if claims.Role == auth.RoleEmployee {
		filter.UserID = &claims.UserId
	}

	q := r.Querier(ctx).NewSelect().
		TableExpr("attendance_events AS ae").
		ColumnExpr("ae.id, ae.user_id, u.employee_id, u.full_name").
		ColumnExpr("ae.check_in_location_id AS location_id, l.name AS location").
		ColumnExpr("to_char((ae.check_in_time AT TIME ZONE t.timezone)::date, 'YYYY-MM-DD') AS work_day").
		ColumnExpr("ae.check_in_time, ae.check_out_time, ae.face_verified").
		ColumnExpr("ae.fraud_score, ae.fraud_indicators, ae.points_earned, ae.is_valid").
		Join("JOIN users AS u ON u.id = ae.user_id").
		Join("JOIN tenants AS t ON t.id = ae.tenant_id").
		Join("LEFT JOIN locations AS l ON l.id = ae.check_in_location_id").
		Where("ae.tenant_id = ?", claims.TenantId)

	if filter.Search != nil {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("u.employee_id ILIKE ?", search).WhereOr("u.full_name ILIKE ?", search)
		})
	}
	if filter.UserID != nil {
		q = q.Where("ae.user_id = ?", *filter.UserID)
	}
	if filter.LocationID != nil {
		q = q.Where("ae.check_in_location_id = ?", *filter.LocationID)
	}
	if filter.IsValid != nil {
		q = q.Where("ae.is_valid = ?", *filter.IsValid)
	}
	if filter.FlaggedOnly != nil && *filter.FlaggedOnly {
		q = q.Where("ae.fraud_score > ?", 50)
	}
	if filter.Date != nil {
		day, err := time.Parse("2006-01-02", *filter.Date)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "date parse"), http.StatusBadRequest)
		}
		q = q.Where("(ae.check_in_time AT TIME ZONE t.timezone)::date = ?", day.Format("2006-01-02"))
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
	count, err := q.Order("ae.check_in_time DESC").ScanAndCount(ctx, &list)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting attendance"), http.StatusInternalServerError)
	}

	for i := range list {
		if list[i].WorkDay, err = parseWorkDay(list[i].WorkDayRaw); err != nil {
			return nil, 0, err
		}
		list[i].TotalHours = totalHours(list[i].CheckInTime, list[i].CheckOutTime)
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id uuid.UUID) (GetDetailByIdResponse, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return GetDetailByIdResponse{}, err
	}

	var detail GetDetailByIdResponse

	q := r.Querier(ctx).NewSelect().
		Model(&detail).
		ColumnExpr("ae.*").
		ColumnExpr("u.employee_id, u.full_name").
		ColumnExpr("li.name AS check_in_location, lo.name AS check_out_location").
		ColumnExpr("to_char((ae.check_in_time AT TIME ZONE t.timezone)::date, 'YYYY-MM-DD') AS work_day").
		Join("JOIN users AS u ON u.id = ae.user_id").
		Join("JOIN tenants AS t ON t.id = ae.tenant_id").
		Join("LEFT JOIN locations AS li ON li.id = ae.check_in_location_id").
		Join("LEFT JOIN locations AS lo ON lo.id = ae.check_out_location_id").
		Where("ae.id = ? AND ae.tenant_id = ?", id, claims.TenantId)

	if claims.Role == auth.RoleEmployee {
		q = q.Where("ae.user_id = ?", claims.UserId)
	}

	err = q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "attendance"), http.StatusNotFound)
	}
	if err != nil {
		return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(err, "selecting attendance"), http.StatusInternalServerError)
	}

	if detail.WorkDay, err = parseWorkDay(detail.WorkDayRaw); err != nil {
		return GetDetailByIdResponse{}, err
	}
	detail.TotalHours = totalHours(detail.CheckInTime, detail.CheckOutTime)

	return detail, nil
}

// UpdateValidity is the admin fraud override. Fraud indicators are left as
// recorded.
func (r Repository) UpdateValidity(ctx context.Context, request UpdateValidityRequest) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	if err := r.ValidateStruct(&request, "IsValid"); err != nil {
		return err
	}

	res, err := r.Querier(ctx).NewUpdate().
		Table("attendance_events").
		Set("is_valid = ?", *request.IsValid).
		Set("validity_note = ?", request.Note).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND tenant_id = ?", request.ID, claims.TenantId).
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating attendance validity"), http.StatusInternalServerError)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "attendance"), http.StatusNotFound)
	}

	return nil
}

func parseWorkDay(raw string) (*date.Date, error) {
	if raw == "" {
		return nil, nil
	}

	workDay, err := date.ParseDate(raw)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "converting work_day to date.Date"), http.StatusInternalServerError)
	}
	return &workDay, nil
}

// totalHours formats the worked span as HH:MM, empty while open.
func totalHours(in time.Time, out *time.Time) string {
	if out == nil {
		return ""
	}

	diff := out.Sub(in)
	return fmt.Sprintf("%02d:%02d", int(diff.Hours()), int(diff.Minutes())%60)
}
