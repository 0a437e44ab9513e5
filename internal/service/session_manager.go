package service

import (
	"context"
	"sort"
	"sync"

	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// SessionManager owns one DashboardState per signed-in workspace. A session is
// created and loaded on first access and destroyed on sign-out.
type SessionManager struct {
	repos          DashboardRepositories
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger

	mu       sync.Mutex
	sessions map[int32]*DashboardState
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(repos DashboardRepositories, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		repos:    repos,
		logger:   logger,
		sessions: make(map[int32]*DashboardState),
	}
}

// SetEventPublisher sets the WebSocket event publisher for new sessions
func (m *SessionManager) SetEventPublisher(publisher websocket.EventPublisher) {
	m.eventPublisher = publisher
}

// Get returns the loaded session of a workspace, creating it if needed
func (m *SessionManager) Get(ctx context.Context, workspaceID int32) (*DashboardState, error) {
	m.mu.Lock()
	state, ok := m.sessions[workspaceID]
	if !ok {
		state = NewDashboardState(workspaceID, m.repos, m.logger)
		state.SetEventPublisher(m.eventPublisher)
		m.sessions[workspaceID] = state
		m.logger.Info().Int32("workspace_id", workspaceID).Msg("Dashboard session started")
	}
	m.mu.Unlock()

	if err := state.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return state, nil
}

// End closes and forgets the session of a workspace. It reports whether one existed.
func (m *SessionManager) End(workspaceID int32) bool {
	m.mu.Lock()
	state, ok := m.sessions[workspaceID]
	delete(m.sessions, workspaceID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	state.Close()
	m.logger.Info().Int32("workspace_id", workspaceID).Msg("Dashboard session ended")
	return true
}

// Sessions returns the open sessions ordered by workspace id
func (m *SessionManager) Sessions() []*DashboardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*DashboardState, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkspaceID() < out[j].WorkspaceID() })
	return out
}

// Len returns the number of open sessions
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
