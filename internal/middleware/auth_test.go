package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
)

func TestGetAuth0ID(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected string
	}{
		{
			name: "returns auth0 id when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), Auth0IDKey, "auth0|12345")
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: "auth0|12345",
		},
		{
			name:     "returns empty string when not present",
			setup:    func(c echo.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			result := GetAuth0ID(c)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: "auth0|test",
			},
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetClaims(c)
		if result == nil {
			t.Fatal("Expected claims, got nil")
		}
		if result.RegisteredClaims.Subject != "auth0|test" {
			t.Errorf("Expected subject 'auth0|test', got %q", result.RegisteredClaims.Subject)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		result := GetClaims(c)
		if result != nil {
			t.Error("Expected nil, got claims")
		}
	})
}

func TestGetCustomClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns custom claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		customClaims := &CustomClaims{
			Email:   "test@example.com",
			Name:    "Test User",
			Picture: "https://example.com/pic.jpg",
		}
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: "auth0|test",
			},
			CustomClaims: customClaims,
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetCustomClaims(c)
		if result == nil {
			t.Fatal("Expected custom claims, got nil")
		}
		if result.Email != "test@example.com" {
			t.Errorf("Expected email 'test@example.com', got %q", result.Email)
		}
		if result.Name != "Test User" {
			t.Errorf("Expected name 'Test User', got %q", result.Name)
		}
	})

	t.Run("returns nil when claims not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		result := GetCustomClaims(c)
		if result != nil {
			t.Error("Expected nil, got custom claims")
		}
	})
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{
		Email: "test@example.com",
		Name:  "Test",
	}

	err := claims.Validate(context.Background())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestGetWorkspaceID(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected int32
	}{
		{
			name: "returns workspace id when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), WorkspaceIDKey, int32(42))
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: 42,
		},
		{
			name:     "returns 0 when not present",
			setup:    func(c echo.Context) {},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			result := GetWorkspaceID(c)
			if result != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, result)
			}
		})
	}
}

type stubValidator struct {
	claims interface{}
	err    error
	tokens []string
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	s.tokens = append(s.tokens, token)
	return s.claims, s.err
}

type stubWorkspaceProvider struct {
	workspaceID int32
	err         error
}

func (s *stubWorkspaceProvider) WorkspaceIDByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	return s.workspaceID, s.err
}

func subjectClaims(subject string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: subject},
	}
}

func runAuthenticate(t *testing.T, m *AuthMiddleware, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := m.Authenticate()(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rec, c, called
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "invalid-token"},
		{"wrong scheme", "Basic token123"},
		{"empty token", "Bearer   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubValidator{claims: subjectClaims("auth0|1")}
			rec, _, called := runAuthenticate(t, NewAuthMiddlewareWithValidator(v, nil), tt.header)

			if called {
				t.Error("Handler should not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
			if len(v.tokens) != 0 {
				t.Errorf("Validator should not be called, got %v", v.tokens)
			}
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	v := &stubValidator{err: errors.New("expired")}

	rec, _, called := runAuthenticate(t, NewAuthMiddlewareWithValidator(v, nil), "Bearer abc")

	if called {
		t.Error("Handler should not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "https://teri.app/errors/unauthorized") {
		t.Errorf("Expected problem details body, got %s", rec.Body.String())
	}
}

func TestAuthMiddleware_InjectsIdentity(t *testing.T) {
	v := &stubValidator{claims: subjectClaims("auth0|42")}
	provider := &stubWorkspaceProvider{workspaceID: 42}

	rec, c, called := runAuthenticate(t, NewAuthMiddlewareWithValidator(v, provider), "bearer abc")

	if !called {
		t.Fatal("Handler should run")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if v.tokens[0] != "abc" {
		t.Errorf("Expected token 'abc', got %q", v.tokens[0])
	}
	if GetAuth0ID(c) != "auth0|42" {
		t.Errorf("Expected auth0 id 'auth0|42', got %q", GetAuth0ID(c))
	}
	if GetWorkspaceID(c) != 42 {
		t.Errorf("Expected workspace 42, got %d", GetWorkspaceID(c))
	}
}

func TestAuthMiddleware_WorkspaceLookupFails(t *testing.T) {
	v := &stubValidator{claims: subjectClaims("auth0|42")}
	provider := &stubWorkspaceProvider{err: errors.New("workspace not found")}

	rec, _, called := runAuthenticate(t, NewAuthMiddlewareWithValidator(v, provider), "Bearer abc")

	if called {
		t.Error("Handler should not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_NilProviderSkipsWorkspace(t *testing.T) {
	v := &stubValidator{claims: subjectClaims("auth0|42")}

	_, c, called := runAuthenticate(t, NewAuthMiddlewareWithValidator(v, nil), "Bearer abc")

	if !called {
		t.Fatal("Handler should run")
	}
	if GetWorkspaceID(c) != 0 {
		t.Errorf("Expected no workspace, got %d", GetWorkspaceID(c))
	}
}

func TestAuthMiddleware_RejectsUnexpectedClaims(t *testing.T) {
	v := &stubValidator{claims: map[string]string{"sub": "auth0|42"}}

	rec, _, called := runAuthenticate(t, NewAuthMiddlewareWithValidator(v, nil), "Bearer abc")

	if called {
		t.Error("Handler should not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
