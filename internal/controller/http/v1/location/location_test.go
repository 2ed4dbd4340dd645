package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/location"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type mockLocation struct {
	GetDetailByIdFunc func(ctx context.Context, id int) (entity.Location, error)
	CreateFunc        func(ctx context.Context, request location.CreateRequest) (entity.Location, error)
	UpdateColumnsFunc func(ctx context.Context, request location.UpdateRequest) error
}

func (m *mockLocation) GetList(context.Context, location.Filter) ([]location.GetListResponse, int, error) {
	return nil, 0, nil
}

func (m *mockLocation) GetDetailById(ctx context.Context, id int) (entity.Location, error) {
	return m.GetDetailByIdFunc(ctx, id)
}

func (m *mockLocation) Create(ctx context.Context, request location.CreateRequest) (entity.Location, error) {
	return m.CreateFunc(ctx, request)
}

func (m *mockLocation) UpdateAll(context.Context, location.UpdateRequest) error { return nil }

func (m *mockLocation) UpdateColumns(ctx context.Context, request location.UpdateRequest) error {
	return m.UpdateColumnsFunc(ctx, request)
}

func (m *mockLocation) Delete(context.Context, int) error { return nil }

type recordingCache struct {
	tenants []int
}

func (r *recordingCache) Invalidate(_ context.Context, tenantID int) {
	r.tenants = append(r.tenants, tenantID)
}

func newContext(method, target, body string) (*web.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	gc, _ := gin.CreateTestContext(w)
	gc.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	gc.Request.Header.Set("Content-Type", "application/json")

	c := web.NewContext(gc, nil)
	c.Ctx = context.WithValue(c.Ctx, auth.Key, auth.Claims{UserId: 1, TenantId: 4, Role: auth.RoleAdmin})
	return c, w
}

func TestCreate_InvalidatesTenantCache(t *testing.T) {
	cache := &recordingCache{}
	ctrl := NewController(&mockLocation{
		CreateFunc: func(_ context.Context, request location.CreateRequest) (entity.Location, error) {
			if len(request.PolygonCoords) != 3 {
				t.Errorf("polygon = %v", request.PolygonCoords)
			}
			return entity.Location{BasicEntity: entity.BasicEntity{ID: 9}, Name: *request.Name}, nil
		},
	}, cache)

	c, w := newContext(http.MethodPost, "/api/v1/location",
		`{"name":"HQ","latitude":-6.2,"longitude":106.8,"polygon_coords":[{"lat":0,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":1}]}`)
	ctrl.Create(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(cache.tenants) != 1 || cache.tenants[0] != 4 {
		t.Errorf("invalidated = %v, want [4]", cache.tenants)
	}
}

func TestUpdateColumns_FailureKeepsCache(t *testing.T) {
	cache := &recordingCache{}
	ctrl := NewController(&mockLocation{
		UpdateColumnsFunc: func(context.Context, location.UpdateRequest) error {
			return web.NewRequestError(errors.New("radius must not be negative"), http.StatusBadRequest)
		},
	}, cache)

	c, w := newContext(http.MethodPatch, "/api/v1/location/9", `{"radius":-1}`)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	ctrl.UpdateColumns(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(cache.tenants) != 0 {
		t.Errorf("cache invalidated on failure")
	}
}

func TestQRCode(t *testing.T) {
	ctrl := NewController(&mockLocation{
		GetDetailByIdFunc: func(_ context.Context, id int) (entity.Location, error) {
			return entity.Location{BasicEntity: entity.BasicEntity{ID: id}}, nil
		},
	}, &recordingCache{})

	c, w := newContext(http.MethodGet, "/api/v1/location/9/qrcode", "")
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	ctrl.QRCode(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

func TestQRCode_BadID(t *testing.T) {
	ctrl := NewController(&mockLocation{}, &recordingCache{})

	c, w := newContext(http.MethodGet, "/api/v1/location/x/qrcode", "")
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	ctrl.QRCode(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
