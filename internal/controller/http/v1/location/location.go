package location

import (
	"net/http"
	"reflect"
	"strconv"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/repository/postgres/location"
	"attendance/workforce/internal/service/report"
)

type Controller struct {
	location Location
	cache    Cache
}

func NewController(location Location, cache Cache) *Controller {
	return &Controller{location, cache}
}

// GetList godoc
//
//	@Summary		Location list
//	@Tags			location
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query	integer	false	"page size"
//	@Param			offset	query	integer	false	"rows to skip"
//	@Param			page	query	integer	false	"page number"
//	@Param			search	query	string	false	"name"
//	@Param			is_active	query	boolean	false	"active flag"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/list [get]
func (uc Controller) GetList(c *web.Context) error {
	var filter location.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if search, ok := c.GetQueryFunc(reflect.String, "search").(*string); ok {
		filter.Search = search
	}
	if isActive, ok := c.GetQueryFunc(reflect.Bool, "is_active").(*bool); ok {
		filter.IsActive = isActive
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.location.GetList(c.Ctx, filter)
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
//	@Summary		Location detail
//	@Tags			location
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/{id} [get]
func (uc Controller) GetDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.location.GetDetailById(c.Ctx, id)
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
//	@Summary		Create location
//	@Tags			location
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body	object	true	"name, latitude, longitude, radius, polygon_coords, use_custom_points, custom_points, is_active"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/create [post]
func (uc Controller) Create(c *web.Context) error {
	var request location.CreateRequest
	if err := c.BindFunc(&request, "Name", "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.location.Create(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}
	uc.invalidate(c)

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// UpdateAll godoc
//
//	@Summary		Replace location
//	@Tags			location
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Param			request	body	object	true	"name, latitude, longitude, radius, polygon_coords, use_custom_points, custom_points, is_active"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/{id} [put]
func (uc Controller) UpdateAll(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request location.UpdateRequest
	if err := c.BindFunc(&request, "Name", "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.location.UpdateAll(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}
	uc.invalidate(c)

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// UpdateColumns godoc
//
//	@Summary		Update location fields
//	@Tags			location
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Param			request	body	object	true	"any location field"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/{id} [patch]
func (uc Controller) UpdateColumns(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request location.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.location.UpdateColumns(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}
	uc.invalidate(c)

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// Delete godoc
//
//	@Summary		Delete location
//	@Tags			location
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/{id} [delete]
func (uc Controller) Delete(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.location.Delete(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}
	uc.invalidate(c)

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// QRCode renders a PNG encoding the location id, for posting at the site.
//
//	@Summary		Location QR code
//	@Tags			location
//	@Produce		png
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{file}	file
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/location/{id}/qrcode [get]
func (uc Controller) QRCode(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	// existence and tenant check
	if _, err := uc.location.GetDetailById(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	png, err := report.LocationQRCode(id)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}

	return c.RespondFile(png, "image/png", "location_"+strconv.Itoa(id)+".png")
}

func (uc Controller) invalidate(c *web.Context) {
	if claims, err := auth.GetClaims(c.Ctx); err == nil {
		uc.cache.Invalidate(c.Ctx, claims.TenantId)
	}
}
