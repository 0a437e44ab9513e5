package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepository implements domain.ProjectRepository using PostgreSQL
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create inserts a project and its component rows in one database transaction
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	componentIDs := make([]int32, 0, len(project.Modules))
	for _, m := range project.Modules {
		id, ok := m.ComponentID()
		if !ok {
			return nil, fmt.Errorf("unknown module %q", m)
		}
		componentIDs = append(componentIDs, id)
	}

	var created *domain.Project
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			p         domain.Project
			status    string
			createdAt pgtype.Timestamptz
		)
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (workspace_id, name, client, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, workspace_id, name, client, status, created_at`,
			project.WorkspaceID, project.Name, project.Client, string(project.Status),
		).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Client, &status, &createdAt)
		if err != nil {
			return err
		}

		if err := insertProjectComponents(ctx, tx, p.ID, componentIDs); err != nil {
			return fmt.Errorf("failed to insert project components: %w", err)
		}

		p.Status = domain.ProjectStatus(status)
		p.CreatedAt = pgTimestamptzToTime(createdAt)
		p.Modules = modulesFromComponentIDs(componentIDs)
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus moves a project between active and proposal
func (r *ProjectRepository) UpdateStatus(ctx context.Context, workspaceID int32, id int32, status domain.ProjectStatus) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx, projectSelect(`
		WITH updated AS (
			UPDATE projects SET status = $3
			WHERE workspace_id = $1 AND id = $2
			RETURNING id, workspace_id, name, client, status, created_at
		)`, "updated")+` GROUP BY p.id, p.workspace_id, p.name, p.client, p.status, p.created_at`,
		workspaceID, id, string(status))
	updated, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

// Delete removes a project; components and tasks cascade
func (r *ProjectRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all projects of a workspace in creation order
func (r *ProjectRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, projectSelect("", "projects")+`
		WHERE p.workspace_id = $1
		GROUP BY p.id, p.workspace_id, p.name, p.client, p.status, p.created_at
		ORDER BY p.created_at ASC, p.id ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Project, error) {
		return scanProject(row)
	})
}

func insertProjectComponents(ctx context.Context, q querier, projectID int32, componentIDs []int32) error {
	if len(componentIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO project_components (project_id, component_id)
		SELECT $1, unnest($2::int[])`, projectID, componentIDs)
	return err
}

// projectSelect joins components onto a project source so each row carries its module ids
func projectSelect(with, source string) string {
	return with + `
		SELECT p.id, p.workspace_id, p.name, p.client, p.status, p.created_at,
			COALESCE(array_agg(pc.component_id ORDER BY pc.component_id) FILTER (WHERE pc.component_id IS NOT NULL), '{}')
		FROM ` + source + ` p
		LEFT JOIN project_components pc ON pc.project_id = p.id`
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p            domain.Project
		status       string
		createdAt    pgtype.Timestamptz
		componentIDs []int32
	)
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Client, &status, &createdAt, &componentIDs); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.CreatedAt = pgTimestamptzToTime(createdAt)
	p.Modules = modulesFromComponentIDs(componentIDs)
	return &p, nil
}

func modulesFromComponentIDs(ids []int32) []domain.Module {
	modules := make([]domain.Module, len(ids))
	for i, id := range ids {
		modules[i] = domain.ModuleFromComponentID(id)
	}
	return modules
}
