package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// SalesHandler handles leads, meetings and deals
type SalesHandler struct{}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler() *SalesHandler {
	return &SalesHandler{}
}

// LeadRequest is the body for creating or editing a lead. On edit, omitted
// fields are kept.
type LeadRequest struct {
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// MeetingRequest is the body for creating or editing a meeting
type MeetingRequest struct {
	Name          *string `json:"name,omitempty"`
	Company       *string `json:"company,omitempty"`
	ScheduledTime *string `json:"scheduledTime,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// DealRequest is the body for creating or editing a deal
type DealRequest struct {
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Value   *string `json:"value,omitempty"`
	Status  *string `json:"status,omitempty"`
	Date    *string `json:"date,omitempty"`
}

// RemovedLeadsResponse lists the leads removed by company
type RemovedLeadsResponse struct {
	Removed []domain.Lead `json:"removed"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateLead handles POST /api/v1/leads
func (h *SalesHandler) CreateLead(c echo.Context, state *service.DashboardState) error {
	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	created, err := state.AddLead(c.Request().Context(), domain.NewLead{
		Name:    deref(req.Name),
		Company: deref(req.Company),
		Status:  deref(req.Status),
	})
	if err != nil {
		return serviceError(c, err, "Failed to create lead")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateLead handles PUT /api/v1/leads/:id
func (h *SalesHandler) UpdateLead(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := state.EditLead(c.Request().Context(), id, domain.LeadPatch{
		Name:    req.Name,
		Company: req.Company,
		Status:  req.Status,
	})
	if err != nil {
		return serviceError(c, err, "Failed to update lead")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteLead handles DELETE /api/v1/leads/:id
func (h *SalesHandler) DeleteLead(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	if err := state.RemoveLead(c.Request().Context(), id); err != nil {
		return serviceError(c, err, "Failed to delete lead")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteLeadsByCompany handles DELETE /api/v1/leads?company=
func (h *SalesHandler) DeleteLeadsByCompany(c echo.Context, state *service.DashboardState) error {
	removed, err := state.RemoveLeadByCompany(c.Request().Context(), c.QueryParam("company"))
	if err != nil {
		return serviceError(c, err, "Failed to delete leads")
	}
	if removed == nil {
		removed = []domain.Lead{}
	}
	return c.JSON(http.StatusOK, RemovedLeadsResponse{Removed: removed})
}

func parseScheduledTime(value *string) (*time.Time, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

// CreateMeeting handles POST /api/v1/meetings
func (h *SalesHandler) CreateMeeting(c echo.Context, state *service.DashboardState) error {
	var req MeetingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	scheduled, ok := parseScheduledTime(req.ScheduledTime)
	if !ok {
		return invalidField(c, "scheduledTime", "Must be an RFC 3339 timestamp")
	}

	input := domain.NewMeeting{
		Name:    deref(req.Name),
		Company: deref(req.Company),
		Status:  deref(req.Status),
	}
	if scheduled != nil {
		input.ScheduledTime = *scheduled
	}

	created, err := state.AddMeeting(c.Request().Context(), input)
	if err != nil {
		return serviceError(c, err, "Failed to create meeting")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateMeeting handles PUT /api/v1/meetings/:id
func (h *SalesHandler) UpdateMeeting(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	var req MeetingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	scheduled, ok := parseScheduledTime(req.ScheduledTime)
	if !ok {
		return invalidField(c, "scheduledTime", "Must be an RFC 3339 timestamp")
	}

	updated, err := state.EditMeeting(c.Request().Context(), id, domain.MeetingPatch{
		Name:          req.Name,
		Company:       req.Company,
		ScheduledTime: scheduled,
		Status:        req.Status,
	})
	if err != nil {
		return serviceError(c, err, "Failed to update meeting")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteMeeting handles DELETE /api/v1/meetings/:id
func (h *SalesHandler) DeleteMeeting(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	if err := state.RemoveMeeting(c.Request().Context(), id); err != nil {
		return serviceError(c, err, "Failed to delete meeting")
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateDeal handles POST /api/v1/deals. The deal, its income transaction and,
// for a won deal, its project are written together or not at all.
func (h *SalesHandler) CreateDeal(c echo.Context, state *service.DashboardState) error {
	var req DealRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	value, ok := parseAmount(deref(req.Value))
	if !ok {
		return invalidField(c, "value", "Must be a valid decimal number")
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return invalidField(c, "date", "Must be in YYYY-MM-DD format")
	}

	result, err := state.AddDeal(c.Request().Context(), domain.NewDeal{
		Name:    deref(req.Name),
		Company: deref(req.Company),
		Value:   value,
		Status:  domain.DealStatus(deref(req.Status)),
		Date:    date,
	})
	if err != nil {
		return serviceError(c, err, "Failed to create deal")
	}
	return c.JSON(http.StatusCreated, result)
}

// UpdateDeal handles PUT /api/v1/deals/:id
func (h *SalesHandler) UpdateDeal(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	var req DealRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	patch := domain.DealPatch{Name: req.Name, Company: req.Company}
	if req.Value != nil {
		value, ok := parseAmount(*req.Value)
		if !ok {
			return invalidField(c, "value", "Must be a valid decimal number")
		}
		patch.Value = &value
	}
	if req.Status != nil {
		status := domain.DealStatus(*req.Status)
		patch.Status = &status
	}
	if req.Date != nil {
		date, ok := parseDate(req.Date)
		if !ok {
			return invalidField(c, "date", "Must be in YYYY-MM-DD format")
		}
		patch.Date = &date
	}

	updated, err := state.EditDeal(c.Request().Context(), id, patch)
	if err != nil {
		return serviceError(c, err, "Failed to update deal")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteDeal handles DELETE /api/v1/deals/:id
func (h *SalesHandler) DeleteDeal(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	if err := state.RemoveDeal(c.Request().Context(), id); err != nil {
		return serviceError(c, err, "Failed to delete deal")
	}
	return c.NoContent(http.StatusNoContent)
}
