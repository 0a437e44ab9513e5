package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/teri/teri-backend/internal/middleware"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/dafibh/teri/teri-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testWorkspaceID = int32(1)

// setupAuthContext sets the claims the auth middleware would inject
func setupAuthContext(c echo.Context, auth0ID string, email, name string) {
	setupAuthContextWithWorkspace(c, auth0ID, email, name, 0)
}

func setupAuthContextWithWorkspace(c echo.Context, auth0ID string, email, name string, workspaceID int32) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: &middleware.CustomClaims{
			Email: email,
			Name:  name,
		},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if workspaceID > 0 {
		ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, workspaceID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

// dashboardFixture wires a session manager over in-memory repositories
type dashboardFixture struct {
	transactions *testutil.MockTransactionRepository
	leads        *testutil.MockLeadRepository
	deals        *testutil.MockDealRepository
	meetings     *testutil.MockMeetingRepository
	projects     *testutil.MockProjectRepository
	tasks        *testutil.MockTaskRepository
	sessions     *service.SessionManager
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		transactions: testutil.NewMockTransactionRepository(),
		leads:        testutil.NewMockLeadRepository(),
		deals:        testutil.NewMockDealRepository(),
		meetings:     testutil.NewMockMeetingRepository(),
		projects:     testutil.NewMockProjectRepository(),
		tasks:        testutil.NewMockTaskRepository(),
	}
	f.sessions = service.NewSessionManager(service.DashboardRepositories{
		Transactions: f.transactions,
		Leads:        f.leads,
		Deals:        f.deals,
		Meetings:     f.meetings,
		Projects:     f.projects,
		Tasks:        f.tasks,
	}, zerolog.Nop())
	return f
}

// call runs fn inside the workspace session for a request and returns the recorder
func (f *dashboardFixture) call(t *testing.T, method, target, body string, params map[string]string, fn SessionHandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for name, value := range params {
		c.SetParamNames(append(c.ParamNames(), name)...)
		c.SetParamValues(append(c.ParamValues(), value)...)
	}
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", testWorkspaceID)

	require.NoError(t, WithSession(f.sessions, fn)(c))
	return rec
}

func (f *dashboardFixture) session(t *testing.T) *service.DashboardState {
	t.Helper()
	state, err := f.sessions.Get(context.Background(), testWorkspaceID)
	require.NoError(t, err)
	return state
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	return decode[ProblemDetails](t, rec)
}

func params(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
