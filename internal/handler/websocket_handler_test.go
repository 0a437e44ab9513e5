package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTokenValidator is a test double for stream token validation
type mockTokenValidator struct {
	workspaceID int32
	err         error
}

func (m *mockTokenValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	return m.workspaceID, m.err
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://teri.app"}

func TestWebSocketHandler_HandleWS_MissingToken(t *testing.T) {
	e := echo.New()
	h := NewWebSocketHandler(websocket.NewHub(), &mockTokenValidator{workspaceID: 1}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing token", problemOf(t, rec).Detail)
}

func TestWebSocketHandler_HandleWS_InvalidToken(t *testing.T) {
	e := echo.New()
	validator := &mockTokenValidator{err: websocket.ErrInvalidToken}
	h := NewWebSocketHandler(websocket.NewHub(), validator, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=invalid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", problemOf(t, rec).Detail)
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	h := NewWebSocketHandler(websocket.NewHub(), &mockTokenValidator{workspaceID: 42}, testAllowedOrigins)

	// A plain GET carries no upgrade headers
	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketHandler_StreamsWorkspaceEvents(t *testing.T) {
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, &mockTokenValidator{workspaceID: 42}, testAllowedOrigins)

	e := echo.New()
	e.GET("/ws", h.HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=valid-jwt"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(42) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(42, websocket.Created(websocket.EntityTypeLead, map[string]string{"company": "Acme"}))
	hub.Broadcast(7, websocket.Created(websocket.EntityTypeLead, map[string]string{"company": "Globex"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "lead.created", event.Type)
	assert.Equal(t, "Acme", event.Payload["company"])

	assert.Equal(t, 1, hub.DisconnectWorkspace(42))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), &mockTokenValidator{workspaceID: 1}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://teri.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, h.checkOrigin(req))
		})
	}
}

func TestWebSocketHandler_InvalidTokenIsNotRetried(t *testing.T) {
	validator := &mockTokenValidator{err: errors.New("expired")}
	h := NewWebSocketHandler(websocket.NewHub(), validator, testAllowedOrigins)

	e := echo.New()
	e.GET("/ws", h.HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=stale"
	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
