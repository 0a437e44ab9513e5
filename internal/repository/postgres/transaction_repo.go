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

const transactionColumns = `id, workspace_id, description, amount, transaction_type, source_deal_id, created_at`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a transaction and returns the stored row
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO financial_transactions (workspace_id, description, amount, transaction_type, source_deal_id, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING `+transactionColumns,
		transaction.WorkspaceID,
		transaction.Name,
		amount,
		string(transaction.Direction.Type()),
		int32PtrToPgInt4(transaction.SourceDealID),
		timeToPgTimestamptz(transaction.Date),
	)
	return scanTransaction(row)
}

// Update writes name, amount, date and deal link of a transaction
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE financial_transactions
		SET description = $3, amount = $4, created_at = $5, source_deal_id = $6
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+transactionColumns,
		transaction.WorkspaceID,
		transaction.ID,
		transaction.Name,
		amount,
		timeToPgTimestamptz(transaction.Date),
		int32PtrToPgInt4(transaction.SourceDealID),
	)
	updated, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

// Delete removes a transaction within a workspace
func (r *TransactionRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM financial_transactions WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all transactions of a workspace, most recent first
func (r *TransactionRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM financial_transactions
		WHERE workspace_id = $1
		ORDER BY created_at DESC, id DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		return scanTransaction(row)
	})
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t            domain.Transaction
		amount       pgtype.Numeric
		txType       string
		sourceDealID pgtype.Int4
		createdAt    pgtype.Timestamptz
	)
	if err := row.Scan(&t.ID, &t.WorkspaceID, &t.Name, &amount, &txType, &sourceDealID, &createdAt); err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Direction = domain.TransactionType(txType).Direction()
	t.SourceDealID = pgInt4ToInt32Ptr(sourceDealID)
	t.CreatedAt = pgTimestamptzToTime(createdAt)
	t.Date = t.CreatedAt
	return &t, nil
}
