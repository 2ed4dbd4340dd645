package pointRule

import (
	"encoding/json"
)

type Filter struct {
	Limit    *int
	Offset   *int
	Page     *int
	RuleType *string
	IsActive *bool
}

type CreateRequest struct {
	Name         *string         `json:"name"          form:"name"`
	RuleType     *string         `json:"rule_type"     form:"rule_type"`
	PointsAmount *int            `json:"points_amount" form:"points_amount"`
	Conditions   json.RawMessage `json:"conditions"    form:"-"`
	IsActive     *bool           `json:"is_active"     form:"is_active"`
}

type UpdateRequest struct {
	ID           int             `json:"id"            form:"id"`
	Name         *string         `json:"name"          form:"name"`
	RuleType     *string         `json:"rule_type"     form:"rule_type"`
	PointsAmount *int            `json:"points_amount" form:"points_amount"`
	Conditions   json.RawMessage `json:"conditions"    form:"-"`
	IsActive     *bool           `json:"is_active"     form:"is_active"`
}
