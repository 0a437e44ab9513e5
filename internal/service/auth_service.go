package service

import (
	"context"
	"errors"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo      domain.UserRepository
	workspaceRepo domain.WorkspaceRepository
	sessions      *SessionManager
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, workspaceRepo domain.WorkspaceRepository, sessions *SessionManager) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
		sessions:      sessions,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Workspace *domain.Workspace
	IsNewUser bool
}

// AuthenticateUser handles the authentication flow after Auth0 callback
// Creates user and workspace if they don't exist
func (s *AuthService) AuthenticateUser(ctx context.Context, auth0ID, email string, name *string) (*AuthResult, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(ctx, auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			workspace, err = s.createDefaultWorkspace(ctx, user)
			if err != nil {
				log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default workspace")
				return nil, err
			}
			log.Info().Str("user_id", user.ID.String()).Msg("Created new user with default workspace")
			return &AuthResult{
				User:      user,
				Workspace: workspace,
				IsNewUser: true,
			}, nil
		}
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get workspace")
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
	return &AuthResult{
		User:      user,
		Workspace: workspace,
		IsNewUser: false,
	}, nil
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(ctx, auth0ID)
}

// GetWorkspaceByAuth0ID retrieves a user's workspace by their Auth0 ID
func (s *AuthService) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
}

// WorkspaceIDByAuth0ID resolves only the workspace ID, for stream authentication
func (s *AuthService) WorkspaceIDByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	workspace, err := s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// SignOut destroys the dashboard session of a workspace. It reports whether
// a session was open.
func (s *AuthService) SignOut(workspaceID int32) bool {
	if s.sessions == nil {
		return false
	}
	ended := s.sessions.End(workspaceID)
	log.Info().Int32("workspace_id", workspaceID).Bool("session_ended", ended).Msg("User signed out")
	return ended
}

func (s *AuthService) createDefaultWorkspace(ctx context.Context, user *domain.User) (*domain.Workspace, error) {
	workspace := &domain.Workspace{
		UserID: user.ID,
		Name:   "Personal",
	}
	return s.workspaceRepo.Create(ctx, workspace)
}
