package attendance

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/attendance"
	pipeline "attendance/workforce/internal/service/attendance"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type mockPipeline struct {
	CheckInFunc  func(ctx context.Context, req pipeline.CheckInRequest) (pipeline.CheckInResult, error)
	CheckOutFunc func(ctx context.Context, req pipeline.CheckOutRequest) (pipeline.CheckOutResult, error)
}

func (m *mockPipeline) CheckIn(ctx context.Context, req pipeline.CheckInRequest) (pipeline.CheckInResult, error) {
	return m.CheckInFunc(ctx, req)
}

func (m *mockPipeline) CheckOut(ctx context.Context, req pipeline.CheckOutRequest) (pipeline.CheckOutResult, error) {
	return m.CheckOutFunc(ctx, req)
}

type mockAttendance struct {
	GetListFunc        func(ctx context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error)
	GetDetailByIdFunc  func(ctx context.Context, id uuid.UUID) (attendance.GetDetailByIdResponse, error)
	UpdateValidityFunc func(ctx context.Context, request attendance.UpdateValidityRequest) error
}

func (m *mockAttendance) GetList(ctx context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error) {
	return m.GetListFunc(ctx, filter)
}

func (m *mockAttendance) GetDetailById(ctx context.Context, id uuid.UUID) (attendance.GetDetailByIdResponse, error) {
	return m.GetDetailByIdFunc(ctx, id)
}

func (m *mockAttendance) UpdateValidity(ctx context.Context, request attendance.UpdateValidityRequest) error {
	return m.UpdateValidityFunc(ctx, request)
}

type mockTenant struct{}

func (mockTenant) GetInfo(context.Context) (entity.Tenant, error) {
	return entity.Tenant{Name: "Acme", Timezone: "Asia/Jakarta"}, nil
}

type mockStorage struct{}

func (mockStorage) Save(*multipart.FileHeader, string, []string) (string, error) {
	return "/statics/photos/p.jpg", nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target, body string) (*web.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	gc, _ := gin.CreateTestContext(w)
	gc.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	gc.Request.Header.Set("Content-Type", "application/json")

	c := web.NewContext(gc, nil)
	c.Ctx = context.WithValue(c.Ctx, auth.Key, auth.Claims{UserId: 7, TenantId: 1, Role: auth.RoleEmployee})
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return body
}

func TestCheckIn(t *testing.T) {
	var got pipeline.CheckInRequest
	ctrl := NewController(&mockPipeline{
		CheckInFunc: func(_ context.Context, req pipeline.CheckInRequest) (pipeline.CheckInResult, error) {
			got = req
			return pipeline.CheckInResult{PointsEarned: 10, CheckInTime: time.Now()}, nil
		},
	}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodPost, "/api/v1/attendance/check-in",
		`{"latitude":-6.2,"longitude":106.8,"location_id":"3","photo_url":"http://x/p.jpg","is_mock":true}`)
	ctrl.CheckIn(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got.UserID != 7 || got.Latitude != -6.2 || got.Longitude != 106.8 || !got.MockLocation {
		t.Errorf("request = %+v", got)
	}
	if got.LocationHint == nil || *got.LocationHint != "3" {
		t.Errorf("location hint = %v", got.LocationHint)
	}

	body := decode(t, w)
	if body["status"] != true || body["data"].(map[string]interface{})["points_earned"] != float64(10) {
		t.Errorf("body = %v", body)
	}
}

func TestCheckIn_MissingCoordinates(t *testing.T) {
	ctrl := NewController(&mockPipeline{
		CheckInFunc: func(context.Context, pipeline.CheckInRequest) (pipeline.CheckInResult, error) {
			t.Fatal("pipeline must not run")
			return pipeline.CheckInResult{}, nil
		},
	}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodPost, "/api/v1/attendance/check-in", `{"latitude":1.5}`)
	ctrl.CheckIn(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCheckIn_AdmissionErrorEchoesCoordinate(t *testing.T) {
	ctrl := NewController(&mockPipeline{
		CheckInFunc: func(_ context.Context, req pipeline.CheckInRequest) (pipeline.CheckInResult, error) {
			return pipeline.CheckInResult{}, web.NewFieldsError(errors.New("outside every location"), http.StatusBadRequest,
				map[string]interface{}{"latitude": req.Latitude, "longitude": req.Longitude})
		},
	}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodPost, "/api/v1/attendance/check-in", `{"latitude":10,"longitude":20}`)
	ctrl.CheckIn(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decode(t, w)
	if body["status"] != false || body["latitude"] != float64(10) || body["longitude"] != float64(20) {
		t.Errorf("body = %v", body)
	}
}

func TestCheckOut_BadAttendanceID(t *testing.T) {
	ctrl := NewController(&mockPipeline{}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodPatch, "/api/v1/attendance/check-out", `{"latitude":1,"longitude":2,"attendance_id":"nope"}`)
	ctrl.CheckOut(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCheckOut(t *testing.T) {
	id := uuid.New()
	var got pipeline.CheckOutRequest
	ctrl := NewController(&mockPipeline{
		CheckOutFunc: func(_ context.Context, req pipeline.CheckOutRequest) (pipeline.CheckOutResult, error) {
			got = req
			return pipeline.CheckOutResult{AttendanceID: id, HoursWorked: 9}, nil
		},
	}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodPatch, "/api/v1/attendance/check-out",
		`{"latitude":1,"longitude":2,"attendance_id":"`+id.String()+`"}`)
	ctrl.CheckOut(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got.AttendanceID == nil || *got.AttendanceID != id || got.UserID != 7 {
		t.Errorf("request = %+v", got)
	}
}

func TestGetHistory_ForcesOwnEvents(t *testing.T) {
	var got attendance.Filter
	ctrl := NewController(&mockPipeline{}, &mockAttendance{
		GetListFunc: func(_ context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error) {
			got = filter
			return nil, 0, nil
		},
	}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodGet, "/api/v1/attendance/history?user_id=99&page=2&limit=5", "")
	ctrl.GetHistory(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.UserID == nil || *got.UserID != 7 {
		t.Errorf("user filter = %v, want 7", got.UserID)
	}
	if got.Page == nil || *got.Page != 2 || got.Limit == nil || *got.Limit != 5 {
		t.Errorf("paging = %v/%v", got.Page, got.Limit)
	}
}

func TestGetList_BadQuery(t *testing.T) {
	ctrl := NewController(&mockPipeline{}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodGet, "/api/v1/attendance/list?limit=ten", "")
	ctrl.GetList(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetDetailById_BadID(t *testing.T) {
	ctrl := NewController(&mockPipeline{}, &mockAttendance{}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodGet, "/api/v1/attendance/x", "")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	ctrl.GetDetailById(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExport(t *testing.T) {
	ctrl := NewController(&mockPipeline{}, &mockAttendance{
		GetListFunc: func(_ context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error) {
			if filter.Limit != nil {
				t.Error("export must not page")
			}
			return []attendance.GetListResponse{{CheckInTime: time.Now()}}, 1, nil
		},
	}, mockTenant{}, mockStorage{})

	c, w := newContext(http.MethodGet, "/api/v1/attendance/export?limit=5", "")
	ctrl.Export(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attendance_") {
		t.Errorf("disposition = %q", w.Header().Get("Content-Disposition"))
	}
}
