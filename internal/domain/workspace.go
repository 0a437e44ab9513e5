package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Workspace scopes every dashboard row to one user
type Workspace struct {
	ID        int32     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Workspace, error)
	GetByUserAuth0ID(ctx context.Context, auth0ID string) (*Workspace, error)
	Create(ctx context.Context, workspace *Workspace) (*Workspace, error)
}
