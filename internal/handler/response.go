package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://teri.app/errors/validation"
	ErrorTypeNotFound     = "https://teri.app/errors/not-found"
	ErrorTypeUnauthorized = "https://teri.app/errors/unauthorized"
	ErrorTypeConflict     = "https://teri.app/errors/conflict"
	ErrorTypeRemoteWrite  = "https://teri.app/errors/remote-write"
	ErrorTypeUnavailable  = "https://teri.app/errors/unavailable"
	ErrorTypeInternal     = "https://teri.app/errors/internal"
)

func problem(c echo.Context, status int, errorType, title, detail string) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail)
}

// NewBadGatewayError reports a write the remote store rejected
func NewBadGatewayError(c echo.Context, detail string) error {
	return problem(c, http.StatusBadGateway, ErrorTypeRemoteWrite, "Remote Write Failed", detail)
}

// NewUnavailableError reports a feature that is not configured
func NewUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail)
}

// serviceError maps a dashboard error to its problem response. Only
// unexpected failures are logged here; the session logs the rest.
func serviceError(c echo.Context, err error, detail string) error {
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &invalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: invalid.Field, Message: invalid.Message},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrSessionClosed):
		return NewConflictError(c, "Dashboard session was closed, reload and retry")
	case errors.Is(err, domain.ErrRemoteWrite):
		return NewBadGatewayError(c, err.Error())
	default:
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(detail)
		return NewInternalError(c, detail)
	}
}

func invalidField(c echo.Context, field, message string) error {
	return NewValidationError(c, "Validation failed", []ValidationError{{Field: field, Message: message}})
}
