package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Context carries the gin context plus the request scoped context.Context
// that middleware enriches (auth claims, transactions).
type Context struct {
	*gin.Context
	Ctx context.Context

	log         *zap.Logger
	paramErrors []string
	queryErrors []string
}

// NewContext is used by tests that drive a handler without an App.
func NewContext(gc *gin.Context, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{Context: gc, Ctx: gc.Request.Context(), log: log}
}

// GetParam converts a path parameter to the requested kind. Conversion
// failures are collected and reported by ValidParam.
func (c *Context) GetParam(kind reflect.Kind, key string) interface{} {
	raw := c.Param(key)

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.paramErrors = append(c.paramErrors, fmt.Sprintf("%s: must be integer", key))
			return 0
		}
		return v
	case reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.paramErrors = append(c.paramErrors, fmt.Sprintf("%s: must be number", key))
			return float64(0)
		}
		return v
	default:
		if raw == "" {
			c.paramErrors = append(c.paramErrors, fmt.Sprintf("%s: required", key))
		}
		return raw
	}
}

// ValidParam returns a 400 error describing every bad path parameter.
func (c *Context) ValidParam() error {
	if len(c.paramErrors) > 0 {
		return NewRequestError(errors.New(strings.Join(c.paramErrors, "; ")), http.StatusBadRequest)
	}
	return nil
}

// GetQueryFunc returns a pointer to the converted query value, or nil when
// the key is absent.
func (c *Context) GetQueryFunc(kind reflect.Kind, key string) interface{} {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.queryErrors = append(c.queryErrors, fmt.Sprintf("%s: must be integer", key))
			return nil
		}
		return &v
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.queryErrors = append(c.queryErrors, fmt.Sprintf("%s: must be boolean", key))
			return nil
		}
		return &v
	case reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.queryErrors = append(c.queryErrors, fmt.Sprintf("%s: must be number", key))
			return nil
		}
		return &v
	default:
		return &raw
	}
}

// ValidQuery returns a 400 error describing every bad query value.
func (c *Context) ValidQuery() error {
	if len(c.queryErrors) > 0 {
		return NewRequestError(errors.New(strings.Join(c.queryErrors, "; ")), http.StatusBadRequest)
	}
	return nil
}

// BindFunc decodes the request body into data and checks that the named
// struct fields are set. Names may be passed separately or comma separated.
func (c *Context) BindFunc(data interface{}, requiredFields ...string) error {
	if err := c.ShouldBind(data); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request"), http.StatusBadRequest)
	}

	var fields []string
	for _, f := range requiredFields {
		for _, name := range strings.Split(f, ",") {
			if name = strings.TrimSpace(name); name != "" {
				fields = append(fields, name)
			}
		}
	}

	return ValidateRequired(data, fields...)
}

// ValidateRequired reports the fields of the struct pointed to by data that
// hold their zero value. A nil pointer counts as missing, a pointer to a zero
// value does not.
func ValidateRequired(data interface{}, fields ...string) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return NewRequestError(errors.New("request must be an object"), http.StatusBadRequest)
	}

	var missing []string
	for _, name := range fields {
		fv := v.FieldByName(name)
		if !fv.IsValid() {
			continue
		}
		if fv.IsZero() {
			missing = append(missing, jsonName(v.Type(), name))
		}
	}

	if len(missing) > 0 {
		return NewRequestError(errors.Errorf("required fields: %s", strings.Join(missing, ", ")), http.StatusBadRequest)
	}
	return nil
}

func jsonName(t reflect.Type, field string) string {
	f, ok := t.FieldByName(field)
	if !ok {
		return field
	}
	tag := strings.Split(f.Tag.Get("json"), ",")[0]
	if tag == "" || tag == "-" {
		return field
	}
	return tag
}

// Respond writes data as JSON with the given status.
func (c *Context) Respond(data interface{}, status int) error {
	if status == http.StatusNoContent {
		c.Status(status)
		return nil
	}
	c.JSON(status, data)
	return nil
}

// RespondError writes err in the common error envelope. Errors that are not
// a *Error are reported as 500 and logged.
func (c *Context) RespondError(err error) error {
	body := map[string]interface{}{
		"status": false,
	}

	webErr, ok := AsRequestError(err)
	if !ok {
		c.log.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		body["error"] = http.StatusText(http.StatusInternalServerError)
		c.JSON(http.StatusInternalServerError, body)
		return nil
	}

	if webErr.Status >= http.StatusInternalServerError {
		c.log.Error("request failed", zap.String("path", c.FullPath()), zap.Int("status", webErr.Status), zap.Error(webErr.Err))
	}

	body["error"] = webErr.Error()
	for k, v := range webErr.Fields {
		body[k] = v
	}
	c.JSON(webErr.Status, body)
	return nil
}

// RespondFile writes raw bytes with the given content type, used for report
// downloads.
func (c *Context) RespondFile(data []byte, contentType, fileName string) error {
	if fileName != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}
	c.Data(http.StatusOK, contentType, data)
	return nil
}
