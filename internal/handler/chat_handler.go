package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/middleware"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles the assistant chat
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendCommandRequest represents a chat message from the user
type SendCommandRequest struct {
	Message string `json:"message"`
}

// ChatHistoryResponse represents the transcript of a workspace
type ChatHistoryResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// ExportResponse carries a time-limited transcript download link
type ExportResponse struct {
	URL string `json:"url"`
}

// SendCommand handles POST /api/v1/chat/commands
func (h *ChatHandler) SendCommand(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req SendCommandRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	reply, err := h.chatService.SendCommand(c.Request().Context(), workspaceID, req.Message)
	if err != nil {
		return serviceError(c, err, "Failed to process chat message")
	}
	return c.JSON(http.StatusOK, reply)
}

// GetMessages handles GET /api/v1/chat/messages
func (h *ChatHandler) GetMessages(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	messages, err := h.chatService.History(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to load chat history")
		return NewInternalError(c, "Failed to load chat history")
	}
	return c.JSON(http.StatusOK, ChatHistoryResponse{Messages: messages})
}

// ClearMessages handles DELETE /api/v1/chat/messages
func (h *ChatHandler) ClearMessages(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if err := h.chatService.ClearHistory(c.Request().Context(), workspaceID); err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to clear chat history")
		return NewInternalError(c, "Failed to clear chat history")
	}
	return c.NoContent(http.StatusNoContent)
}

// ExportMessages handles GET /api/v1/chat/messages/export
func (h *ChatHandler) ExportMessages(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	url, err := h.chatService.ExportURL(c.Request().Context(), workspaceID)
	if err != nil {
		if errors.Is(err, service.ErrExportUnavailable) {
			return NewUnavailableError(c, "Transcript export is not configured")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to sign transcript export")
		return NewInternalError(c, "Failed to export chat history")
	}
	return c.JSON(http.StatusOK, ExportResponse{URL: url})
}
