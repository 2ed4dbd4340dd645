package tenant

import (
	"net/http"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/repository/postgres/tenant"
)

type Controller struct {
	tenant Tenant
}

func NewController(tenant Tenant) *Controller {
	return &Controller{tenant}
}

// GetInfo godoc
//
//	@Summary		Tenant info
//	@Tags			tenant
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/tenant [get]
func (uc Controller) GetInfo(c *web.Context) error {
	response, err := uc.tenant.GetInfo(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// UpdateColumns changes the tenant name or time zone. Points rules and work
// days are evaluated in the new zone from the next event on.
//
//	@Summary		Update tenant
//	@Tags			tenant
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body	object	true	"name, timezone"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/tenant [patch]
func (uc Controller) UpdateColumns(c *web.Context) error {
	var request tenant.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}

	if err := uc.tenant.UpdateColumns(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}
