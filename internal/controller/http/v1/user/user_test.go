package user

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/user"
	"attendance/workforce/internal/service/report"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type mockUser struct {
	CreateFunc        func(ctx context.Context, request user.CreateRequest) (entity.User, error)
	UpdateColumnsFunc func(ctx context.Context, request user.UpdateRequest) error
	existing          map[string]struct{}
}

func (m *mockUser) GetList(context.Context, user.Filter) ([]user.GetListResponse, int, error) {
	return nil, 0, nil
}

func (m *mockUser) GetDetailById(context.Context, int) (entity.User, error) {
	return entity.User{}, nil
}

func (m *mockUser) EmployeeIDs(context.Context) (map[string]struct{}, error) {
	return m.existing, nil
}

func (m *mockUser) Create(ctx context.Context, request user.CreateRequest) (entity.User, error) {
	return m.CreateFunc(ctx, request)
}

func (m *mockUser) UpdateColumns(ctx context.Context, request user.UpdateRequest) error {
	return m.UpdateColumnsFunc(ctx, request)
}

func (m *mockUser) Delete(context.Context, int) error { return nil }

type mockStorage struct {
	folder string
}

func (m *mockStorage) Save(_ *multipart.FileHeader, folder string, _ []string) (string, error) {
	m.folder = folder
	return "/statics/" + folder + "/face.png", nil
}

func multipartContext(t *testing.T, field, name, contentType string, data []byte) (*web.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	w := httptest.NewRecorder()
	gc, _ := gin.CreateTestContext(w)
	gc.Request = httptest.NewRequest(http.MethodPost, "/api/v1/user", &buf)
	gc.Request.Header.Set("Content-Type", mw.FormDataContentType())

	c := web.NewContext(gc, nil)
	c.Ctx = context.WithValue(c.Ctx, auth.Key, auth.Claims{UserId: 1, TenantId: 1, Role: auth.RoleAdmin})
	return c, w
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", report.ImportSheet)
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(report.ImportSheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCreateUserByExcel(t *testing.T) {
	var created []string
	ctrl := NewController(&mockUser{
		existing: map[string]struct{}{"E-9": {}},
		CreateFunc: func(_ context.Context, request user.CreateRequest) (entity.User, error) {
			if *request.EmployeeID == "E-3" {
				return entity.User{}, web.NewRequestError(errors.New("invalid role"), http.StatusBadRequest)
			}
			created = append(created, *request.EmployeeID)
			return entity.User{}, nil
		},
	}, &mockStorage{})

	data := workbook(t, [][]interface{}{
		{"Employee ID", "Full Name", "Role", "Password"},
		{"E-1", "Sari", "EMPLOYEE", "secret1"},
		{"E-9", "Taken", "EMPLOYEE", "secret1"},
		{"E-3", "Bad Role", "BOSS", "secret1"},
	})

	c, w := multipartContext(t, "file", "staff.xlsx", xlsxContentType, data)
	ctrl.CreateUserByExcel(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(created) != 1 || created[0] != "E-1" {
		t.Errorf("created = %v", created)
	}

	var body struct {
		Data struct {
			Created      int   `json:"created"`
			RejectedRows []int `json:"rejected_rows"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Created != 1 || len(body.Data.RejectedRows) != 2 {
		t.Errorf("body = %+v", body.Data)
	}
}

func TestCreateUserByExcel_WrongType(t *testing.T) {
	ctrl := NewController(&mockUser{}, &mockStorage{})

	c, w := multipartContext(t, "file", "staff.csv", "text/csv", []byte("a,b"))
	ctrl.CreateUserByExcel(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadFacePhoto(t *testing.T) {
	var got user.UpdateRequest
	storage := &mockStorage{}
	ctrl := NewController(&mockUser{
		UpdateColumnsFunc: func(_ context.Context, request user.UpdateRequest) error {
			got = request
			return nil
		},
	}, storage)

	c, w := multipartContext(t, "photo", "face.png", "image/png", []byte("png"))
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	ctrl.UploadFacePhoto(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got.ID != 12 || got.FacePhotoURL == nil || *got.FacePhotoURL != "/statics/photos/face.png" {
		t.Errorf("update = %+v", got)
	}
	if storage.folder != "photos" {
		t.Errorf("folder = %q", storage.folder)
	}
}
