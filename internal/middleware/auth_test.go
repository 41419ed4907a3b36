package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johanandu/selfstoragejandu/pkg/config"
	"github.com/johanandu/selfstoragejandu/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

func authTestContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/open", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "middleware-test-key", ExpirationHours: 1})
	token, err := jwtutil.GenerateToken("cus_abc123", "renter@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	nextCalled := false
	handler := AuthMiddleware(func(c echo.Context) error {
		nextCalled = true
		if got, _ := GetUserIDFromContext(c); got != "cus_abc123" {
			t.Errorf("user_id in context = %q, want cus_abc123", got)
		}
		return c.NoContent(http.StatusOK)
	})

	c, rec := authTestContext(t, "Bearer "+token)
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if !nextCalled {
		t.Error("next handler was not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "middleware-test-key", ExpirationHours: 1})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(func(c echo.Context) error {
				t.Error("next handler called for an unauthenticated request")
				return nil
			})
			c, rec := authTestContext(t, tt.header)
			if err := handler(c); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestGetUserIDFromContext_Unset(t *testing.T) {
	c, _ := authTestContext(t, "")
	if _, ok := GetUserIDFromContext(c); ok {
		t.Error("GetUserIDFromContext reported a principal on a bare context")
	}
}
