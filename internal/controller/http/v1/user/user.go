package user

import (
	"net/http"
	"reflect"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/repository/postgres/user"
	"attendance/workforce/internal/service/report"
	"attendance/workforce/internal/service/upload"

	"github.com/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Controller struct {
	user    User
	storage Storage
}

func NewController(user User, storage Storage) *Controller {
	return &Controller{user, storage}
}

// GetUserList godoc
//
//	@Summary		User list
//	@Tags			user
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			limit	query	integer	false	"page size"
//	@Param			offset	query	integer	false	"rows to skip"
//	@Param			page	query	integer	false	"page number"
//	@Param			search	query	string	false	"employee id or name"
//	@Param			role	query	string	false	"EMPLOYEE, ADMIN or SUPER_ADMIN"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/list [get]
func (uc Controller) GetUserList(c *web.Context) error {
	var filter user.Filter

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
	if role, ok := c.GetQueryFunc(reflect.String, "role").(*string); ok {
		filter.Role = role
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.user.GetList(c.Ctx, filter)
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

// GetUserDetailById godoc
//
//	@Summary		User detail
//	@Tags			user
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/{id} [get]
func (uc Controller) GetUserDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.user.GetDetailById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// CreateUser godoc
//
//	@Summary		Create user
//	@Tags			user
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body	object	true	"employee_id, full_name, role, password, phone, locale"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/create [post]
func (uc Controller) CreateUser(c *web.Context) error {
	var request user.CreateRequest
	if err := c.BindFunc(&request, "EmployeeID", "Password", "Role"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.user.Create(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"created_data": response,
		"status":       true,
	}, http.StatusOK)
}

// ImportTemplate godoc
//
//	@Summary		Import template
//	@Tags			user
//	@Produce		octet-stream
//	@Security		ApiKeyAuth
//	@Success		200	{file}	file
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/import-template [get]
func (uc Controller) ImportTemplate(c *web.Context) error {
	data, err := report.ImportTemplate()
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}
	return c.RespondFile(data, xlsxContentType, "employee_import.xlsx")
}

// CreateUserByExcel creates one user per accepted row of the uploaded
// workbook. Rejected rows are reported back by row number.
//
//	@Summary		Import users
//	@Tags			user
//	@Accept			mpfd
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			file	formData	file	true	"xlsx workbook"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/import [post]
func (uc Controller) CreateUserByExcel(c *web.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "file"), http.StatusBadRequest))
	}
	if !upload.InArray(file.Header.Get("Content-Type"), upload.SheetTypes) {
		return c.RespondError(web.NewRequestError(upload.ErrContentType, http.StatusBadRequest))
	}

	existing, err := uc.user.EmployeeIDs(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	src, err := file.Open()
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "opening upload"), http.StatusBadRequest))
	}
	defer src.Close()

	rows, rejected, err := report.ReadEmployees(src, existing)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
	}

	created := 0
	for _, row := range rows {
		row := row
		request := user.CreateRequest{
			EmployeeID:   &row.EmployeeID,
			Password:     &row.Password,
			Role:         &row.Role,
			FullName:     nonEmpty(row.FullName),
			Phone:        nonEmpty(row.Phone),
			Locale:       nonEmpty(row.Locale),
			FacePhotoURL: nonEmpty(row.FacePhotoURL),
		}
		if _, err := uc.user.Create(c.Ctx, request); err != nil {
			if _, ok := web.AsRequestError(err); !ok {
				return c.RespondError(err)
			}
			rejected = append(rejected, row.Row)
			continue
		}
		created++
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"created":       created,
			"rejected_rows": rejected,
		},
		"status": true,
	}, http.StatusOK)
}

// UpdateUserColumns godoc
//
//	@Summary		Update user fields
//	@Tags			user
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Param			request	body	object	true	"any user field"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/{id} [patch]
func (uc Controller) UpdateUserColumns(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request user.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.user.UpdateColumns(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// UploadFacePhoto stores the reference photo check-in selfies are matched
// against.
//
//	@Summary		Upload reference photo
//	@Tags			user
//	@Accept			mpfd
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Param			photo	formData	file	true	"jpeg, png or webp"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/{id}/face-photo [post]
func (uc Controller) UploadFacePhoto(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "photo"), http.StatusBadRequest))
	}

	path, err := uc.storage.Save(file, upload.PhotoFolder, upload.PhotoTypes)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
	}

	if err := uc.user.UpdateColumns(c.Ctx, user.UpdateRequest{ID: id, FacePhotoURL: &path}); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   map[string]string{"face_photo_url": path},
		"status": true,
	}, http.StatusOK)
}

// DeleteUser godoc
//
//	@Summary		Delete user
//	@Tags			user
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path	integer	true	"id"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Failure		401	{object}	map[string]interface{}
//	@Router			/api/v1/user/{id} [delete]
func (uc Controller) DeleteUser(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.user.Delete(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
