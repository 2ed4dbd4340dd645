package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newApp(t *testing.T) (*web.App, *auth.Auth) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := auth.New("secret")
	if err != nil {
		t.Fatal(err)
	}

	app := web.NewApp(zap.NewNop())
	app.Get("/me", func(c *web.Context) error {
		claims, err := auth.GetClaims(c.Ctx)
		if err != nil {
			return c.RespondError(err)
		}
		return c.Respond(map[string]interface{}{"data": claims.UserId, "status": true}, http.StatusOK)
	}, Authenticate(a))
	app.Get("/admin", func(c *web.Context) error {
		return c.Respond(map[string]interface{}{"status": true}, http.StatusOK)
	}, Authenticate(a, auth.RoleAdmin))

	return app, a
}

func do(app *web.App, path, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	app.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	app, a := newApp(t)

	employee, err := a.GenerateToken(auth.Claims{UserId: 7, TenantId: 1, Role: auth.RoleEmployee})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"valid", "/me", "Bearer " + employee, http.StatusOK},
		{"wrong role", "/admin", "Bearer " + employee, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(app, tt.path, tt.header); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(CORSMiddleware([]string{"https://app.example.com"}))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow origin = %q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("foreign origin status = %d, want 403", w.Code)
	}
}
