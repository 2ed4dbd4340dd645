package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func fileHeader(t *testing.T, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(body)
	w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["photo"][0]
}

func TestSaveAndOpen(t *testing.T) {
	s := NewStorage(t.TempDir(), "/statics/", nil)

	p, err := s.Save(fileHeader(t, "Face.JPG", "image/jpeg", []byte("jpegdata")), PhotoFolder, PhotoTypes)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(p, "/statics/photos/") || !strings.HasSuffix(p, ".jpg") {
		t.Errorf("path = %q", p)
	}

	f, err := s.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, _ := io.ReadAll(f)
	if string(got) != "jpegdata" {
		t.Errorf("content = %q", got)
	}
}

func TestSave_RejectsContentType(t *testing.T) {
	s := NewStorage(t.TempDir(), "/statics", nil)

	_, err := s.Save(fileHeader(t, "a.txt", "text/plain", []byte("x")), PhotoFolder, PhotoTypes)
	if !errors.Is(err, ErrContentType) {
		t.Errorf("err = %v, want ErrContentType", err)
	}
}

func TestOpen_Traversal(t *testing.T) {
	s := NewStorage(t.TempDir(), "/statics", nil)

	if _, err := s.Open("/statics/../../etc/passwd"); err == nil {
		t.Error("expected traversal to fail")
	}
}
