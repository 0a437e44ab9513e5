package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, project_id, title, description, status, created_at, updated_at`

// TaskRepository implements domain.TaskRepository using PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// ListByProject returns the tasks of a project, newest first
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int32) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM project_tasks
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Task, error) {
		return scanTask(row)
	})
}

// Create inserts a task and returns the stored row
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO project_tasks (project_id, title, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns,
		task.ProjectID, task.Title, task.Description, string(task.Status))
	return scanTask(row)
}

// Update writes title, description and status of a task
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE project_tasks SET title = $2, description = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		task.ID, task.Title, task.Description, string(task.Status))
	updated, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM project_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t         domain.Task
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.CreatedAt = pgTimestamptzToTime(createdAt)
	t.UpdatedAt = pgTimestamptzToTime(updatedAt)
	return &t, nil
}
