package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func routeContext(path, authHeader string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetPath(path)
	return c
}

func TestAuthSkipper(t *testing.T) {
	tests := []struct {
		path string
		skip bool
	}{
		{"/health", true},
		{"/health/db", true},
		{"/metrics", true},
		{"/ws", true},
		{"/api/v1/patients", false},
		{"/api/v1/doctors/:id/token", false},
		{"/api/v1/beds", false},
		{"/", false},
		{"/health/extra", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := AuthSkipper(routeContext(tt.path, "")); got != tt.skip {
				t.Errorf("AuthSkipper(%s) = %v, want %v", tt.path, got, tt.skip)
			}
			if got := IsPublicPath(tt.path); got != tt.skip {
				t.Errorf("IsPublicPath(%s) = %v, want %v", tt.path, got, tt.skip)
			}
		})
	}
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	valid := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "nurse-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{RoleNurse},
	}, testSigningKey)

	tests := []struct {
		name    string
		path    string
		header  string
		skipper func(echo.Context) bool
		wantErr bool
		wantUID string
	}{
		{name: "public path without token", path: "/metrics", skipper: AuthSkipper},
		{name: "protected path without token", path: "/api/v1/beds", skipper: AuthSkipper, wantErr: true},
		{name: "nil skipper checks public paths too", path: "/health", wantErr: true},
		{name: "protected path with token", path: "/api/v1/beds", header: "Bearer " + valid, skipper: AuthSkipper, wantUID: "nurse-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var uid string
			called := false
			h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: tt.skipper})(func(c echo.Context) error {
				called = true
				uid = UserIDFromContext(c.Request().Context())
				return nil
			})

			err := h(routeContext(tt.path, tt.header))
			if tt.wantErr {
				he, ok := err.(*echo.HTTPError)
				if !ok || he.Code != http.StatusUnauthorized {
					t.Fatalf("expected 401, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !called {
				t.Fatal("handler not called")
			}
			if uid != tt.wantUID {
				t.Errorf("user id = %q, want %q", uid, tt.wantUID)
			}
		})
	}
}

func TestDevAuthMiddleware_Skipper(t *testing.T) {
	var uid string
	h := DevAuthMiddleware(AuthSkipper)(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		return nil
	})

	if err := h(routeContext("/health", "")); err != nil {
		t.Fatal(err)
	}
	if uid != "" {
		t.Errorf("expected no identity on a skipped path, got %q", uid)
	}

	if err := h(routeContext("/api/v1/appointments", "")); err != nil {
		t.Fatal(err)
	}
	if uid != DevUserID {
		t.Errorf("expected dev-user, got %q", uid)
	}
}

func TestDevAuthMiddleware_LeavesRateLimitKeyUnset(t *testing.T) {
	c := routeContext("/api/v1/appointments", "")
	var uid string
	err := DevAuthMiddleware(AuthSkipper)(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		return nil
	})(c)

	if err != nil {
		t.Fatal(err)
	}
	if uid != DevUserID {
		t.Errorf("expected dev-user on the request context, got %q", uid)
	}
	if got := c.Get("user_id"); got != nil {
		t.Errorf("expected no echo user_id for the injected dev identity, got %v", got)
	}
}
