package pointRule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/repository/postgres/pointRule"

	"github.com/gin-gonic/gin"
)

type mockPointRule struct {
	CreateFunc    func(ctx context.Context, request pointRule.CreateRequest) (entity.PointRule, error)
	UpdateAllFunc func(ctx context.Context, request pointRule.UpdateRequest) error
}

func (m *mockPointRule) GetList(context.Context, pointRule.Filter) ([]entity.PointRule, int, error) {
	return nil, 0, nil
}

func (m *mockPointRule) GetDetailById(context.Context, int) (entity.PointRule, error) {
	return entity.PointRule{}, nil
}

func (m *mockPointRule) Create(ctx context.Context, request pointRule.CreateRequest) (entity.PointRule, error) {
	return m.CreateFunc(ctx, request)
}

func (m *mockPointRule) UpdateAll(ctx context.Context, request pointRule.UpdateRequest) error {
	return m.UpdateAllFunc(ctx, request)
}

func (m *mockPointRule) UpdateColumns(context.Context, pointRule.UpdateRequest) error { return nil }

func (m *mockPointRule) Delete(context.Context, int) error { return nil }

func newContext(method, target, body string) (*web.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	gc, _ := gin.CreateTestContext(w)
	gc.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	gc.Request.Header.Set("Content-Type", "application/json")

	c := web.NewContext(gc, nil)
	c.Ctx = context.WithValue(c.Ctx, auth.Key, auth.Claims{UserId: 1, TenantId: 1, Role: auth.RoleAdmin})
	return c, w
}

func TestCreate_PassesConditions(t *testing.T) {
	var got pointRule.CreateRequest
	ctrl := NewController(&mockPointRule{
		CreateFunc: func(_ context.Context, request pointRule.CreateRequest) (entity.PointRule, error) {
			got = request
			return entity.PointRule{}, nil
		},
	})

	c, w := newContext(http.MethodPost, "/api/v1/point_rule/create",
		`{"name":"Early bird","rule_type":"on_time","points_amount":5,"conditions":{"deadline":"08:00:00"}}`)
	ctrl.Create(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if *got.RuleType != "on_time" || *got.PointsAmount != 5 {
		t.Errorf("request = %+v", got)
	}
	if !strings.Contains(string(got.Conditions), "deadline") {
		t.Errorf("conditions = %s", got.Conditions)
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	ctrl := NewController(&mockPointRule{
		CreateFunc: func(context.Context, pointRule.CreateRequest) (entity.PointRule, error) {
			t.Fatal("repository must not be called")
			return entity.PointRule{}, nil
		},
	})

	c, w := newContext(http.MethodPost, "/api/v1/point_rule/create", `{"name":"No type"}`)
	ctrl.Create(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateAll_SetsID(t *testing.T) {
	var got pointRule.UpdateRequest
	ctrl := NewController(&mockPointRule{
		UpdateAllFunc: func(_ context.Context, request pointRule.UpdateRequest) error {
			got = request
			return nil
		},
	})

	c, w := newContext(http.MethodPut, "/api/v1/point_rule/3", `{"name":"x","rule_type":"streak","points_amount":1}`)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	ctrl.UpdateAll(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got.ID != 3 {
		t.Errorf("id = %d, want 3", got.ID)
	}
}
