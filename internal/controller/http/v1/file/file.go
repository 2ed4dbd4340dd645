package file

import (
	"net/http"
	"os"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/repository/postgres"

	"github.com/pkg/errors"
)

type Storage interface {
	Open(publicPath string) (*os.File, error)
}

type Controller struct {
	storage Storage
}

func NewController(storage Storage) *Controller {
	return &Controller{storage}
}

// File serves an uploaded photo by the public path Save returned.
func (fc Controller) File(c *web.Context) error {
	f, err := fc.storage.Open(c.Request.URL.Path)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "file"), http.StatusNotFound))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return c.RespondError(web.NewRequestError(errors.Wrap(postgres.ErrNotFound, "file"), http.StatusNotFound))
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return nil
}
