package file

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/service/upload"

	"github.com/gin-gonic/gin"
)

func serve(ctrl *Controller, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	gc, _ := gin.CreateTestContext(w)
	gc.Request = httptest.NewRequest(http.MethodGet, target, nil)
	ctrl.File(web.NewContext(gc, nil))
	return w
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	storage := upload.NewStorage(dir, "/statics", nil)

	if err := os.MkdirAll(filepath.Join(dir, "photos"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "photos", "a.jpg"), []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}

	w := serve(NewController(storage), "/statics/photos/a.jpg")
	if w.Code != http.StatusOK || w.Body.String() != "jpeg" {
		t.Errorf("existing: status = %d, body %q", w.Code, w.Body.String())
	}

	w = serve(NewController(storage), "/statics/photos/missing.jpg")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", w.Code)
	}

	w = serve(NewController(storage), "/statics/photos")
	if w.Code != http.StatusNotFound {
		t.Errorf("directory: status = %d, want 404", w.Code)
	}
}
