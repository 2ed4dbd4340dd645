package pointRule

import (
	"net/http"
	"reflect"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/repository/postgres/pointRule"
)

type Controller struct {
	pointRule PointRule
}

func NewController(pointRule PointRule) *Controller {
	return &Controller{pointRule}
}

// GetList godoc
//
//	@Summary		Point rule list
//	@Tags			point_rule
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query	integer	false	"page size"
//	@Param			offset	query	integer	false	"rows to skip"
//	@Param			page	query	integer	false	"page number"
//	@Param			rule_type	query	string	false	"check_in, on_time, streak or full_day"
//	@Param			is_active	query	boolean	false	"active flag"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/point_rule/list [get]
func (uc Controller) GetList(c *web.Context) error {
	var filter pointRule.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if ruleType, ok := c.GetQueryFunc(reflect.String, "rule_type").(*string); ok {
		filter.RuleType = ruleType
	}
	if isActive, ok := c.GetQueryFunc(reflect.Bool, "is_active").(*bool); ok {
		filter.IsActive = isActive
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.pointRule.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

// GetDetailById godoc
//
//	@Summary		Point rule detail
//	@Tags			point_rule
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/point_rule/{id} [get]
func (uc Controller) GetDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.pointRule.GetDetailById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// Create godoc
//
//	@Summary		Create point rule
//	@Tags			point_rule
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body	object	true	"name, rule_type, points_amount, conditions, is_active"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/point_rule/create [post]
func (uc Controller) Create(c *web.Context) error {
	var request pointRule.CreateRequest
	if err := c.BindFunc(&request, "Name", "RuleType", "PointsAmount"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.pointRule.Create(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// UpdateAll godoc
//
//	@Summary		Replace point rule
//	@Tags			point_rule
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Param			request	body	object	true	"name, rule_type, points_amount, conditions, is_active"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/point_rule/{id} [put]
func (uc Controller) UpdateAll(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request pointRule.UpdateRequest
	if err := c.BindFunc(&request, "Name", "RuleType", "PointsAmount"); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.pointRule.UpdateAll(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// UpdateColumns godoc
//
//	@Summary		Update point rule fields
//	@Tags			point_rule
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Param			request	body	object	true	"any point rule field"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/point_rule/{id} [patch]
func (uc Controller) UpdateColumns(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request pointRule.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.pointRule.UpdateColumns(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// Delete godoc
//
//	@Summary		Delete point rule
//	@Tags			point_rule
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/point_rule/{id} [delete]
func (uc Controller) Delete(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.pointRule.Delete(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}
