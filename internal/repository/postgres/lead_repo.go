package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `id, workspace_id, name, company, status, created_at`

// LeadRepository implements domain.LeadRepository using PostgreSQL
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Create inserts a lead and returns the stored row
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (workspace_id, name, company, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+leadColumns,
		lead.WorkspaceID, lead.Name, lead.Company, lead.Status)
	return scanLead(row)
}

// Update writes name, company and status of a lead
func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET name = $3, company = $4, status = $5
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+leadColumns,
		lead.WorkspaceID, lead.ID, lead.Name, lead.Company, lead.Status)
	updated, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

// Delete removes a lead within a workspace
func (r *LeadRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all leads of a workspace, newest first
func (r *LeadRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE workspace_id = $1
		ORDER BY created_at DESC, id DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Lead, error) {
		return scanLead(row)
	})
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var (
		l         domain.Lead
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&l.ID, &l.WorkspaceID, &l.Name, &l.Company, &l.Status, &createdAt); err != nil {
		return nil, err
	}
	l.CreatedAt = pgTimestamptzToTime(createdAt)
	return &l, nil
}
