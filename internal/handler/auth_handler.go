package handler

import (
	"net/http"

	"github.com/dafibh/teri/teri-backend/internal/middleware"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SubscriberDisconnector drops the live event subscribers of a workspace
type SubscriberDisconnector interface {
	DisconnectWorkspace(workspaceID int32) int
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	subscribers SubscriberDisconnector
}

// NewAuthHandler creates a new AuthHandler. subscribers may be nil.
func NewAuthHandler(authService *service.AuthService, subscribers SubscriberDisconnector) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		subscribers: subscribers,
	}
}

// AuthCallbackResponse represents the response from the auth callback
type AuthCallbackResponse struct {
	User      UserResponse      `json:"user"`
	Workspace WorkspaceResponse `json:"workspace"`
	IsNewUser bool              `json:"isNewUser"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// WorkspaceResponse represents a workspace in API responses
type WorkspaceResponse struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// LogoutResponse represents the response from logout
type LogoutResponse struct {
	Message      string `json:"message"`
	SessionEnded bool   `json:"sessionEnded"`
	Disconnected int    `json:"disconnected"`
}

// Callback handles POST /api/v1/auth/callback, called by the frontend after
// it receives an Auth0 token. First sign-in creates the user and workspace.
func (h *AuthHandler) Callback(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		log.Error().Msg("No Auth0 ID in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}

	var email, name string
	if claims := middleware.GetCustomClaims(c); claims != nil {
		email = claims.Email
		name = claims.Name
	}
	if email == "" {
		log.Error().Str("auth0_id", auth0ID).Msg("No email in JWT claims")
		return NewValidationError(c, "Email is required for authentication", []ValidationError{
			{Field: "email", Message: "Email claim is missing from token"},
		})
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}

	result, err := h.authService.AuthenticateUser(c.Request().Context(), auth0ID, email, namePtr)
	if err != nil {
		return NewInternalError(c, "Failed to authenticate user")
	}

	return c.JSON(http.StatusOK, AuthCallbackResponse{
		User: UserResponse{
			ID:    result.User.ID.String(),
			Email: result.User.Email,
			Name:  result.User.Name,
		},
		Workspace: WorkspaceResponse{
			ID:   result.Workspace.ID,
			Name: result.Workspace.Name,
		},
		IsNewUser: result.IsNewUser,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	user, err := h.authService.GetUserByAuth0ID(c.Request().Context(), auth0ID)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to get user")
		return NewNotFoundError(c, "User not found")
	}
	workspace, err := h.authService.GetWorkspaceByAuth0ID(c.Request().Context(), auth0ID)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to get workspace")
		return NewNotFoundError(c, "Workspace not found")
	}

	return c.JSON(http.StatusOK, AuthCallbackResponse{
		User: UserResponse{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
		},
		Workspace: WorkspaceResponse{
			ID:   workspace.ID,
			Name: workspace.Name,
		},
	})
}

// Logout handles POST /api/v1/auth/logout. It destroys the workspace's
// dashboard session and closes its event streams; Auth0 ends the login itself.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	response := LogoutResponse{Message: "Logged out successfully"}
	if workspaceID := middleware.GetWorkspaceID(c); workspaceID != 0 {
		response.SessionEnded = h.authService.SignOut(workspaceID)
		if h.subscribers != nil {
			response.Disconnected = h.subscribers.DisconnectWorkspace(workspaceID)
		}
	}

	log.Info().Str("auth0_id", auth0ID).Msg("User logged out")
	return c.JSON(http.StatusOK, response)
}
