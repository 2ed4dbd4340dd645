// Package upload stores multipart files under the static directory served by
// the HTTP layer.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	PhotoFolder  = "photos"
	ImportFolder = "imports"
)

var (
	PhotoTypes = []string{"image/jpeg", "image/png", "image/webp"}
	SheetTypes = []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
	}
)

var ErrContentType = errors.New("invalid file type")

// MaxPhotoSize bounds check-in photos.
const MaxPhotoSize = 5 << 20

type Storage struct {
	baseDir string
	urlPath string
	log     *zap.Logger
}

// NewStorage saves under baseDir; saved files are addressed as urlPath/<folder>/<name>.
func NewStorage(baseDir, urlPath string, log *zap.Logger) *Storage {
	if log == nil {
		log = zap.NewNop()
	}
	return &Storage{baseDir: baseDir, urlPath: strings.TrimSuffix(urlPath, "/"), log: log}
}

func InArray[T comparable](val T, array []T) bool {
	for _, v := range array {
		if val == v {
			return true
		}
	}
	return false
}

// Save copies file into folder and returns its public path.
func (s *Storage) Save(file *multipart.FileHeader, folder string, allowed []string) (string, error) {
	if file == nil {
		return "", errors.New("no file")
	}

	contentType := file.Header.Get("Content-Type")
	if !InArray(contentType, allowed) {
		return "", errors.Wrapf(ErrContentType, "expected one of %v, got %q", allowed, contentType)
	}

	targetDir := filepath.Join(s.baseDir, folder)
	if err := os.MkdirAll(targetDir, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "creating upload folder")
	}

	name := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102T150405"), uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			s.log.Warn("upload src close", zap.Error(closeErr))
		}
	}()

	out, err := os.Create(filepath.Join(targetDir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			s.log.Warn("upload out close", zap.Error(closeErr))
		}
	}()

	if _, err = io.Copy(out, src); err != nil {
		return "", errors.Wrap(err, "writing file")
	}

	return path.Join(s.urlPath, folder, name), nil
}

// Open resolves a public path produced by Save back to the stored file.
func (s *Storage) Open(publicPath string) (*os.File, error) {
	cleaned := path.Clean("/" + publicPath)
	if !strings.HasPrefix(cleaned, s.urlPath+"/") {
		return nil, os.ErrNotExist
	}
	rel := strings.TrimPrefix(cleaned, s.urlPath)
	return os.Open(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
}
