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

const dealColumns = `id, workspace_id, name, company, value, status, created_at`

// DealRepository implements domain.DealRepository using PostgreSQL
type DealRepository struct {
	pool *pgxpool.Pool
}

// NewDealRepository creates a new DealRepository
func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

// Create inserts a deal and returns the stored row
func (r *DealRepository) Create(ctx context.Context, deal *domain.Deal) (*domain.Deal, error) {
	value, err := decimalToPgNumeric(deal.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO deals (workspace_id, name, company, value, status, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING `+dealColumns,
		deal.WorkspaceID, deal.Name, deal.Company, value, string(deal.Status), timeToPgTimestamptz(deal.Date))
	return scanDeal(row)
}

// Update writes every mutable field of a deal
func (r *DealRepository) Update(ctx context.Context, deal *domain.Deal) (*domain.Deal, error) {
	value, err := decimalToPgNumeric(deal.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE deals SET name = $3, company = $4, value = $5, status = $6, created_at = $7
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+dealColumns,
		deal.WorkspaceID, deal.ID, deal.Name, deal.Company, value, string(deal.Status), timeToPgTimestamptz(deal.Date))
	updated, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

// Delete removes a deal within a workspace
func (r *DealRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deals WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all deals of a workspace, newest first
func (r *DealRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE workspace_id = $1
		ORDER BY created_at DESC, id DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Deal, error) {
		return scanDeal(row)
	})
}

func scanDeal(row pgx.Row) (*domain.Deal, error) {
	var (
		d         domain.Deal
		value     pgtype.Numeric
		status    string
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&d.ID, &d.WorkspaceID, &d.Name, &d.Company, &value, &status, &createdAt); err != nil {
		return nil, err
	}
	d.Value = pgNumericToDecimal(value)
	d.Status = domain.DealStatus(status)
	d.Date = pgTimestamptzToTime(createdAt)
	return &d, nil
}
