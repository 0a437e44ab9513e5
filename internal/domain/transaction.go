package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells which side of the finance aggregate a transaction belongs to
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// TransactionType is the stored form of Direction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Type maps a direction to its stored transaction type
func (d Direction) Type() TransactionType {
	if d == DirectionIn {
		return TransactionTypeIncome
	}
	return TransactionTypeExpense
}

// Direction maps a stored transaction type back to a direction
func (t TransactionType) Direction() Direction {
	if t == TransactionTypeIncome {
		return DirectionIn
	}
	return DirectionOut
}

type Transaction struct {
	ID           int32           `json:"id"`
	WorkspaceID  int32           `json:"workspaceId"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    Direction       `json:"direction"`
	Date         time.Time       `json:"date"`
	SourceDealID *int32          `json:"sourceDealId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewTransaction holds the caller-supplied fields of a transaction
type NewTransaction struct {
	Name   string
	Amount decimal.Decimal
	Date   time.Time
}

// TransactionPatch holds the optional fields of a transaction edit
type TransactionPatch struct {
	Name   *string
	Amount *decimal.Decimal
	Date   *time.Time
}

// Apply returns a copy of t with the patch applied
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	Update(ctx context.Context, transaction *Transaction) (*Transaction, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	ListByWorkspace(ctx context.Context, workspaceID int32) ([]*Transaction, error)
}
