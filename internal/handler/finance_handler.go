package handler

import (
	"net/http"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// FinanceHandler handles money in / money out transactions
type FinanceHandler struct{}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler() *FinanceHandler {
	return &FinanceHandler{}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Name   string  `json:"name"`
	Amount string  `json:"amount"`
	Date   *string `json:"date,omitempty"`
}

// UpdateTransactionRequest carries the fields to change; omitted fields are kept
type UpdateTransactionRequest struct {
	Name   *string `json:"name,omitempty"`
	Amount *string `json:"amount,omitempty"`
	Date   *string `json:"date,omitempty"`
}

func directionParam(c echo.Context) (domain.Direction, bool) {
	direction := domain.Direction(c.Param("direction"))
	return direction, direction.Valid()
}

// CreateTransaction handles POST /api/v1/finance/:direction/transactions
func (h *FinanceHandler) CreateTransaction(c echo.Context, state *service.DashboardState) error {
	direction, ok := directionParam(c)
	if !ok {
		return invalidField(c, "direction", "Must be 'in' or 'out'")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return invalidField(c, "amount", "Must be a valid decimal number")
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return invalidField(c, "date", "Must be in YYYY-MM-DD format")
	}

	created, err := state.AddTransaction(c.Request().Context(), direction, domain.NewTransaction{
		Name:   req.Name,
		Amount: amount,
		Date:   date,
	})
	if err != nil {
		return serviceError(c, err, "Failed to create transaction")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateTransaction handles PUT /api/v1/finance/:direction/transactions/:id
func (h *FinanceHandler) UpdateTransaction(c echo.Context, state *service.DashboardState) error {
	direction, ok := directionParam(c)
	if !ok {
		return invalidField(c, "direction", "Must be 'in' or 'out'")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	patch := domain.TransactionPatch{Name: req.Name}
	if req.Amount != nil {
		amount, ok := parseAmount(*req.Amount)
		if !ok {
			return invalidField(c, "amount", "Must be a valid decimal number")
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, ok := parseDate(req.Date)
		if !ok {
			return invalidField(c, "date", "Must be in YYYY-MM-DD format")
		}
		patch.Date = &date
	}

	updated, err := state.EditTransaction(c.Request().Context(), direction, id, patch)
	if err != nil {
		return serviceError(c, err, "Failed to update transaction")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteTransaction handles DELETE /api/v1/finance/:direction/transactions/:id.
// Removing an id that is not loaded succeeds without a remote call.
func (h *FinanceHandler) DeleteTransaction(c echo.Context, state *service.DashboardState) error {
	direction, ok := directionParam(c)
	if !ok {
		return invalidField(c, "direction", "Must be 'in' or 'out'")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}

	if err := state.RemoveTransaction(c.Request().Context(), direction, id); err != nil {
		return serviceError(c, err, "Failed to delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}
