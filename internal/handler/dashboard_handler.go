package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/middleware"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// SessionHandlerFunc handles a request against the caller's loaded dashboard session
type SessionHandlerFunc func(c echo.Context, state *service.DashboardState) error

// WithSession resolves the caller's workspace session, loading it on first use
func WithSession(sessions *service.SessionManager, fn SessionHandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		workspaceID := middleware.GetWorkspaceID(c)
		if workspaceID == 0 {
			return NewUnauthorizedError(c, "Workspace required")
		}

		state, err := sessions.Get(c.Request().Context(), workspaceID)
		if err != nil {
			return serviceError(c, err, "Failed to load dashboard")
		}
		return fn(c, state)
	}
}

// DashboardHandler serves the combined dashboard view
type DashboardHandler struct{}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// ReconcileResponse is the outcome of a manual reconcile
type ReconcileResponse struct {
	Created   int                      `json:"created"`
	Updated   int                      `json:"updated"`
	Deleted   int                      `json:"deleted"`
	Dashboard domain.DashboardSnapshot `json:"dashboard"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c echo.Context, state *service.DashboardState) error {
	return c.JSON(http.StatusOK, state.Snapshot())
}

// Reconcile handles POST /api/v1/dashboard/reconcile
func (h *DashboardHandler) Reconcile(c echo.Context, state *service.DashboardState) error {
	plan, err := state.Reconcile(c.Request().Context())
	if err != nil {
		return serviceError(c, err, "Failed to reconcile dashboard")
	}
	return c.JSON(http.StatusOK, ReconcileResponse{
		Created:   len(plan.Create),
		Updated:   len(plan.Update),
		Deleted:   len(plan.Delete),
		Dashboard: state.Snapshot(),
	})
}

// Refresh handles POST /api/v1/dashboard/refresh, reloading the session from the store
func (h *DashboardHandler) Refresh(c echo.Context, state *service.DashboardState) error {
	if err := service.RefreshSession(c.Request().Context(), state); err != nil {
		return serviceError(c, err, "Failed to refresh dashboard")
	}
	return c.JSON(http.StatusOK, state.Snapshot())
}

func parseIDParam(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func parseAmount(value string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// parseDate accepts an empty value as today (UTC)
func parseDate(value *string) (time.Time, bool) {
	if value == nil || *value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
