package points

import (
	"net/http"
	"reflect"
	"strconv"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/repository/postgres/points"
	"attendance/workforce/internal/service/report"
)

type Controller struct {
	points Points
}

func NewController(points Points) *Controller {
	return &Controller{points}
}

// GetBalance returns the caller's balance; admins may pass user_id.
//
//	@Summary		Points balance
//	@Tags			points
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			user_id	query	integer	false	"user id, admins only"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/points/balance [get]
func (uc Controller) GetBalance(c *web.Context) error {
	userID, _ := c.GetQueryFunc(reflect.Int, "user_id").(*int)
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.points.GetBalance(c.Ctx, userID)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// GetLedger godoc
//
//	@Summary		Points ledger
//	@Tags			points
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query	integer	false	"page size"
//	@Param			offset	query	integer	false	"rows to skip"
//	@Param			page	query	integer	false	"page number"
//	@Param			user_id	query	integer	false	"user id, admins only"
//	@Param			from	query	string	false	"first day YYYY-MM-DD"
//	@Param			to	query	string	false	"last day YYYY-MM-DD"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/points/ledger [get]
func (uc Controller) GetLedger(c *web.Context) error {
	filter, err := ledgerFilter(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.points.GetLedger(c.Ctx, filter)
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

// GetStatement renders the ledger for a period as a PDF.
//
//	@Summary		Points statement
//	@Tags			points
//	@Produce		pdf
//	@Security		ApiKeyAuth
//	@Param			user_id	query	integer	false	"user id, admins only"
//	@Param			from	query	string	false	"first day YYYY-MM-DD"
//	@Param			to	query	string	false	"last day YYYY-MM-DD"
//	@Success		200	{file}	file
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/points/statement [get]
func (uc Controller) GetStatement(c *web.Context) error {
	filter, err := ledgerFilter(c)
	if err != nil {
		return c.RespondError(err)
	}

	statement, err := uc.points.GetStatement(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	pdf, err := report.PointsStatement(statement)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}

	return c.RespondFile(pdf, "application/pdf", report.FileName("points_"+strconv.Itoa(statement.UserID), "pdf", time.Now()))
}

// Adjust godoc
//
//	@Summary		Adjust points
//	@Tags			points
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body	object	true	"user_id, points, description"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/points/adjust [post]
func (uc Controller) Adjust(c *web.Context) error {
	var request points.AdjustRequest
	if err := c.BindFunc(&request, "UserID", "Points"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.points.Adjust(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func ledgerFilter(c *web.Context) (points.Filter, error) {
	var filter points.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if userID, ok := c.GetQueryFunc(reflect.Int, "user_id").(*int); ok {
		filter.UserID = userID
	}
	if from, ok := c.GetQueryFunc(reflect.String, "from").(*string); ok {
		filter.From = from
	}
	if to, ok := c.GetQueryFunc(reflect.String, "to").(*string); ok {
		filter.To = to
	}

	return filter, c.ValidQuery()
}
