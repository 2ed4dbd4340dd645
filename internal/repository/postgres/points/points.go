package points

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/repository/postgresql"
	"attendance/workforce/internal/repository/postgres"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// Award appends the entry and moves the user's balance in one transaction,
// joining the caller's transaction when there is one.
func (r Repository) Award(ctx context.Context, entry *entity.PointsLedgerEntry) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		err := r.Querier(ctx).NewUpdate().
			Table("users").
			Set("points_balance = points_balance + ?", entry.Points).
			Where("id = ? AND tenant_id = ?", entry.UserID, entry.TenantID).
			Returning("points_balance").
			Scan(ctx, &entry.BalanceAfter)
		if errors.Is(err, sql.ErrNoRows) {
			return web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "user"), http.StatusNotFound)
		}
		if err != nil {
			return web.NewRequestError(errors.Wrap(err, "updating points balance"), http.StatusInternalServerError)
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}

		if _, err := r.Querier(ctx).NewInsert().Model(entry).Returning("id").Exec(ctx); err != nil {
			return web.NewRequestError(errors.Wrap(err, "appending points ledger"), http.StatusInternalServerError)
		}
		return nil
	})
}

// Adjust is a manual admin correction. It goes through the ledger like any
// earned points.
func (r Repository) Adjust(ctx context.Context, request AdjustRequest) (entity.PointsLedgerEntry, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return entity.PointsLedgerEntry{}, err
	}

	if err := r.ValidateStruct(&request, "UserID", "Points"); err != nil {
		return entity.PointsLedgerEntry{}, err
	}

	entry := entity.PointsLedgerEntry{
		TenantID: claims.TenantId,
		UserID:   *request.UserID,
		Type:     entity.LedgerAdjust,
		Points:   *request.Points,
	}
	if request.Description != nil {
		entry.Description = *request.Description
	}

	if err := r.Award(ctx, &entry); err != nil {
		return entity.PointsLedgerEntry{}, err
	}

	return entry, nil
}

// GetBalance returns the caller's balance, or the given user's for admins.
func (r Repository) GetBalance(ctx context.Context, userID *int) (BalanceResponse, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return BalanceResponse{}, err
	}

	var detail BalanceResponse

	err = r.Querier(ctx).NewSelect().
		Model((*entity.User)(nil)).
		ColumnExpr("u.id, u.employee_id, u.full_name, u.points_balance").
		Where("u.id = ? AND u.tenant_id = ?", r.subject(claims, userID), claims.TenantId).
		Scan(ctx, &detail)
	if errors.Is(err, sql.ErrNoRows) {
		return BalanceResponse{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "user"), http.StatusNotFound)
	}
	if err != nil {
		return BalanceResponse{}, web.NewRequestError(errors.Wrap(err, "selecting points balance"), http.StatusInternalServerError)
	}

	return detail, nil
}

func (r Repository) GetLedger(ctx context.Context, filter Filter) ([]entity.PointsLedgerEntry, int, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return nil, 0, err
	}

	var list []entity.PointsLedgerEntry

	q := r.Querier(ctx).NewSelect().
		Model(&list).
		Where("pl.tenant_id = ?", claims.TenantId).
		Where("pl.user_id = ?", r.subject(claims, filter.UserID))

	q, err = period(q, filter)
	if err != nil {
		return nil, 0, err
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

	count, err := q.Order("pl.id DESC").ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting points ledger"), http.StatusInternalServerError)
	}

	return list, count, nil
}

// GetStatement collects everything the PDF statement prints.
func (r Repository) GetStatement(ctx context.Context, filter Filter) (Statement, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return Statement{}, err
	}

	balance, err := r.GetBalance(ctx, filter.UserID)
	if err != nil {
		return Statement{}, err
	}

	statement := Statement{BalanceResponse: balance}

	if err := r.Querier(ctx).NewSelect().
		Table("tenants").
		Column("timezone").
		Where("id = ?", claims.TenantId).
		Scan(ctx, &statement.Timezone); err != nil {
		return Statement{}, web.NewRequestError(errors.Wrap(err, "selecting tenant timezone"), http.StatusInternalServerError)
	}

	filter.UserID = &balance.UserID
	filter.Limit, filter.Offset, filter.Page = nil, nil, nil

	entries, _, err := r.GetLedger(ctx, filter)
	if err != nil {
		return Statement{}, err
	}
	statement.Entries = entries
	statement.From, _ = parseDay(filter.From)
	statement.To, _ = parseDay(filter.To)

	return statement, nil
}

// subject is the user a points query is about. Employees always query
// themselves.
func (r Repository) subject(claims auth.Claims, userID *int) int {
	if userID == nil || claims.Role == auth.RoleEmployee {
		return claims.UserId
	}
	return *userID
}

func period(q *bun.SelectQuery, filter Filter) (*bun.SelectQuery, error) {
	from, err := parseDay(filter.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDay(filter.To)
	if err != nil {
		return nil, err
	}

	if from != nil {
		q = q.Where("pl.created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("pl.created_at < ?", to.AddDate(0, 0, 1))
	}
	return q, nil
}

func parseDay(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	day, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "date parse"), http.StatusBadRequest)
	}
	return &day, nil
}
