package pointRule

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/repository/postgresql"
	"attendance/workforce/internal/repository/postgres"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

type Repository struct {
	*postgresql.Database
	log *zap.Logger
}

func NewRepository(database *postgresql.Database, log *zap.Logger) *Repository {
	return &Repository{Database: database, log: log}
}

// ActiveRules returns the tenant's active rules with decoded conditions.
// Rows whose conditions do not decode are logged and skipped.
func (r Repository) ActiveRules(ctx context.Context, tenantID int) ([]entity.PointRule, error) {
	var list []entity.PointRule

	err := r.Querier(ctx).NewSelect().
		Model(&list).
		Where("pr.tenant_id = ?", tenantID).
		Where("pr.is_active").
		Order("pr.id").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "selecting point rules")
	}

	return decodeActive(list, r.log), nil
}

// decodeActive decodes every rule and drops the ones that fail.
func decodeActive(list []entity.PointRule, log *zap.Logger) []entity.PointRule {
	valid := list[:0]
	for _, rule := range list {
		if err := rule.Decode(); err != nil {
			log.Warn("skipping point rule with invalid conditions",
				zap.Int("rule_id", rule.ID),
				zap.Int("tenant_id", rule.TenantID),
				zap.String("rule_type", string(rule.RuleType)),
				zap.Error(err))
			continue
		}
		valid = append(valid, rule)
	}
	return valid
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]entity.PointRule, int, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return nil, 0, err
	}

	var list []entity.PointRule

	q := r.Querier(ctx).NewSelect().
		Model(&list).
		Where("pr.tenant_id = ?", claims.TenantId)

	if filter.RuleType != nil {
		q = q.Where("pr.rule_type = ?", *filter.RuleType)
	}
	if filter.IsActive != nil {
		q = q.Where("pr.is_active = ?", *filter.IsActive)
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

	count, err := q.Order("pr.id").ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting point rules"), http.StatusInternalServerError)
	}

	for i := range list {
		if err := list[i].Decode(); err != nil {
			r.log.Warn("point rule has invalid conditions", zap.Int("rule_id", list[i].ID), zap.Error(err))
		}
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id int) (entity.PointRule, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return entity.PointRule{}, err
	}

	var detail entity.PointRule

	err = r.Querier(ctx).NewSelect().
		Model(&detail).
		Where("pr.id = ? AND pr.tenant_id = ?", id, claims.TenantId).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.PointRule{}, web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "point rule"), http.StatusNotFound)
	}
	if err != nil {
		return entity.PointRule{}, web.NewRequestError(errors.Wrap(err, "selecting point rule"), http.StatusInternalServerError)
	}

	if err := detail.Decode(); err != nil {
		r.log.Warn("point rule has invalid conditions", zap.Int("rule_id", detail.ID), zap.Error(err))
	}

	return detail, nil
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (entity.PointRule, error) {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return entity.PointRule{}, err
	}

	if err := r.ValidateStruct(&request, "RuleType", "PointsAmount"); err != nil {
		return entity.PointRule{}, err
	}

	rule := entity.PointRule{
		TenantID:      claims.TenantId,
		RuleType:      entity.RuleType(*request.RuleType),
		PointsAmount:  *request.PointsAmount,
		RawConditions: request.Conditions,
		IsActive:      true,
	}
	if request.Name != nil {
		rule.Name = strings.TrimSpace(*request.Name)
	}
	if request.IsActive != nil {
		rule.IsActive = *request.IsActive
	}

	if err := validate(&rule); err != nil {
		return entity.PointRule{}, err
	}

	rule.CreatedBy = &claims.UserId
	rule.CreatedAt = time.Now()

	_, err = r.Querier(ctx).NewInsert().Model(&rule).Returning("id").Exec(ctx)
	if err != nil {
		return entity.PointRule{}, web.NewRequestError(errors.Wrap(err, "creating point rule"), http.StatusInternalServerError)
	}

	return rule, nil
}

func (r Repository) UpdateAll(ctx context.Context, request UpdateRequest) error {
	if err := r.ValidateStruct(&request, "ID", "RuleType", "PointsAmount", "IsActive"); err != nil {
		return err
	}

	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	rule := entity.PointRule{
		RuleType:      entity.RuleType(*request.RuleType),
		PointsAmount:  *request.PointsAmount,
		RawConditions: request.Conditions,
		IsActive:      *request.IsActive,
	}
	if request.Name != nil {
		rule.Name = strings.TrimSpace(*request.Name)
	}

	if err := validate(&rule); err != nil {
		return err
	}

	q := r.Querier(ctx).NewUpdate().
		Table("point_rules").
		Where("deleted_at IS NULL AND id = ? AND tenant_id = ?", request.ID, claims.TenantId).
		Set("name = ?", rule.Name).
		Set("rule_type = ?", rule.RuleType).
		Set("points_amount = ?", rule.PointsAmount).
		Set("conditions = ?", string(rule.RawConditions)).
		Set("is_active = ?", rule.IsActive).
		Set("updated_at = ?", time.Now()).
		Set("updated_by = ?", claims.UserId)

	return execUpdate(ctx, q)
}

func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest) error {
	if err := r.ValidateStruct(&request, "ID"); err != nil {
		return err
	}

	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	current, err := r.GetDetailById(ctx, request.ID)
	if err != nil {
		return err
	}

	q := r.Querier(ctx).NewUpdate().
		Table("point_rules").
		Where("deleted_at IS NULL AND id = ? AND tenant_id = ?", request.ID, claims.TenantId)

	if request.Name != nil {
		q.Set("name = ?", strings.TrimSpace(*request.Name))
	}
	if request.PointsAmount != nil {
		current.PointsAmount = *request.PointsAmount
		q.Set("points_amount = ?", current.PointsAmount)
	}
	if request.IsActive != nil {
		q.Set("is_active = ?", *request.IsActive)
	}

	if request.RuleType != nil || request.Conditions != nil {
		if request.RuleType != nil {
			current.RuleType = entity.RuleType(*request.RuleType)
		}
		if request.Conditions != nil {
			current.RawConditions = request.Conditions
		}
		if err := validate(&current); err != nil {
			return err
		}
		q.Set("rule_type = ?", current.RuleType)
		q.Set("conditions = ?", string(current.RawConditions))
	} else if current.PointsAmount < 0 {
		return web.NewRequestError(errors.New("points_amount must not be negative"), http.StatusBadRequest)
	}

	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	return execUpdate(ctx, q)
}

func (r Repository) Delete(ctx context.Context, id int) error {
	claims, err := r.CheckClaims(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}

	return r.DeleteRow(ctx, "point_rules", id, claims.TenantId)
}

func execUpdate(ctx context.Context, q *bun.UpdateQuery) error {
	res, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating point rule"), http.StatusInternalServerError)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "point rule"), http.StatusNotFound)
	}

	return nil
}

// validate decodes the conditions and stores them back in canonical form.
func validate(rule *entity.PointRule) error {
	if rule.PointsAmount < 0 {
		return web.NewRequestError(errors.New("points_amount must not be negative"), http.StatusBadRequest)
	}

	conditions, err := entity.DecodeConditions(rule.RuleType, rule.RawConditions)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	raw, err := json.Marshal(conditions)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "encoding conditions"), http.StatusInternalServerError)
	}

	rule.Conditions = conditions
	rule.RawConditions = raw

	return nil
}
