package attendance

import (
	"net/http"
	"reflect"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/repository/postgres/attendance"
	pipeline "attendance/workforce/internal/service/attendance"
	"attendance/workforce/internal/service/report"
	"attendance/workforce/internal/service/upload"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Controller struct {
	pipeline   Pipeline
	attendance Attendance
	tenant     Tenant
	storage    Storage
}

func NewController(pipeline Pipeline, attendance Attendance, tenant Tenant, storage Storage) *Controller {
	return &Controller{pipeline, attendance, tenant, storage}
}

// CheckIn accepts JSON or a multipart form carrying the selfie as "photo".
//
//	@Summary		Check in
//	@Tags			attendance
//	@Accept			mpfd json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			latitude	formData	number	true	"latitude"
//	@Param			longitude	formData	number	true	"longitude"
//	@Param			location_id	formData	string	false	"location hint or default"
//	@Param			is_mock	formData	boolean	false	"device reported a mocked location"
//	@Param			photo_url	formData	string	false	"selfie URL"
//	@Param			photo	formData	file	false	"selfie"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/check-in [post]
func (uc Controller) CheckIn(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	var request attendance.CheckInRequest
	if err := c.BindFunc(&request, "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}

	if request.Photo != nil {
		path, err := uc.storage.Save(request.Photo, upload.PhotoFolder, upload.PhotoTypes)
		if err != nil {
			return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
		}
		request.PhotoURL = &path
	}

	response, err := uc.pipeline.CheckIn(c.Ctx, pipeline.CheckInRequest{
		UserID:       claims.UserId,
		Latitude:     *request.Latitude,
		Longitude:    *request.Longitude,
		LocationHint: request.LocationID,
		PhotoURL:     request.PhotoURL,
		MockLocation: request.IsMock,
	})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"message": "checked in",
		"data":    response,
		"status":  true,
	}, http.StatusOK)
}

// CheckOut godoc
//
//	@Summary		Check out
//	@Tags			attendance
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body	object	true	"latitude, longitude, location_id, attendance_id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/check-out [patch]
func (uc Controller) CheckOut(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	var request attendance.CheckOutRequest
	if err := c.BindFunc(&request, "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}

	var attendanceID *uuid.UUID
	if request.AttendanceID != nil && *request.AttendanceID != "" {
		id, err := uuid.Parse(*request.AttendanceID)
		if err != nil {
			return c.RespondError(web.NewRequestError(errors.Wrap(err, "attendance_id"), http.StatusBadRequest))
		}
		attendanceID = &id
	}

	response, err := uc.pipeline.CheckOut(c.Ctx, pipeline.CheckOutRequest{
		UserID:       claims.UserId,
		AttendanceID: attendanceID,
		Latitude:     *request.Latitude,
		Longitude:    *request.Longitude,
		LocationHint: request.LocationID,
	})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"message": "checked out",
		"data":    response,
		"status":  true,
	}, http.StatusOK)
}

// GetList godoc
//
//	@Summary		Tenant attendance list
//	@Tags			attendance
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query	integer	false	"page size"
//	@Param			offset	query	integer	false	"rows to skip"
//	@Param			page	query	integer	false	"page number"
//	@Param			search	query	string	false	"employee id or name"
//	@Param			date	query	string	false	"work day YYYY-MM-DD"
//	@Param			user_id	query	integer	false	"user id"
//	@Param			location_id	query	integer	false	"location id"
//	@Param			is_valid	query	boolean	false	"validity"
//	@Param			flagged	query	boolean	false	"fraud score above 50"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/list [get]
func (uc Controller) GetList(c *web.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.attendance.GetList(c.Ctx, filter)
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

// GetHistory lists the caller's own events whatever their role.
//
//	@Summary		Own attendance history
//	@Tags			attendance
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query	integer	false	"page size"
//	@Param			offset	query	integer	false	"rows to skip"
//	@Param			page	query	integer	false	"page number"
//	@Param			date	query	string	false	"work day YYYY-MM-DD"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/history [get]
func (uc Controller) GetHistory(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	filter, err := listFilter(c)
	if err != nil {
		return c.RespondError(err)
	}
	filter.UserID = &claims.UserId

	list, count, err := uc.attendance.GetList(c.Ctx, filter)
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
//	@Summary		Attendance detail
//	@Tags			attendance
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"attendance id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/{id} [get]
func (uc Controller) GetDetailById(c *web.Context) error {
	id, err := uuidParam(c)
	if err != nil {
		return c.RespondError(err)
	}

	response, err := uc.attendance.GetDetailById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// UpdateValidity godoc
//
//	@Summary		Override validity
//	@Tags			attendance
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	string	true	"attendance id"
//	@Param			request	body	object	true	"is_valid, note"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/{id}/validity [patch]
func (uc Controller) UpdateValidity(c *web.Context) error {
	id, err := uuidParam(c)
	if err != nil {
		return c.RespondError(err)
	}

	var request attendance.UpdateValidityRequest
	if err := c.BindFunc(&request, "IsValid"); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.attendance.UpdateValidity(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// Export writes the filtered list as an xlsx workbook in the tenant's time zone.
//
//	@Summary		Export attendance
//	@Tags			attendance
//	@Produce		octet-stream
//	@Security		ApiKeyAuth
//	@Param			search	query	string	false	"employee id or name"
//	@Param			date	query	string	false	"work day YYYY-MM-DD"
//	@Param			user_id	query	integer	false	"user id"
//	@Param			location_id	query	integer	false	"location id"
//	@Param			is_valid	query	boolean	false	"validity"
//	@Param			flagged	query	boolean	false	"fraud score above 50"
//	@Success		200	{file}	file
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/attendance/export [get]
func (uc Controller) Export(c *web.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return c.RespondError(err)
	}
	filter.Limit, filter.Offset, filter.Page = nil, nil, nil

	list, _, err := uc.attendance.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	tenant, err := uc.tenant.GetInfo(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}
	tz, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		tz = time.UTC
	}

	buf, err := report.AttendanceWorkbook(list, tz)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}

	return c.RespondFile(buf.Bytes(), xlsxContentType, report.FileName("attendance", "xlsx", time.Now().In(tz)))
}

func listFilter(c *web.Context) (attendance.Filter, error) {
	var filter attendance.Filter

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
	if date, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		filter.Date = date
	}
	if userID, ok := c.GetQueryFunc(reflect.Int, "user_id").(*int); ok {
		filter.UserID = userID
	}
	if locationID, ok := c.GetQueryFunc(reflect.Int, "location_id").(*int); ok {
		filter.LocationID = locationID
	}
	if isValid, ok := c.GetQueryFunc(reflect.Bool, "is_valid").(*bool); ok {
		filter.IsValid = isValid
	}
	if flagged, ok := c.GetQueryFunc(reflect.Bool, "flagged").(*bool); ok {
		filter.FlaggedOnly = flagged
	}

	return filter, c.ValidQuery()
}

func uuidParam(c *web.Context) (uuid.UUID, error) {
	raw := c.GetParam(reflect.String, "id").(string)
	if err := c.ValidParam(); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, web.NewRequestError(errors.Wrap(err, "id"), http.StatusBadRequest)
	}
	return id, nil
}
