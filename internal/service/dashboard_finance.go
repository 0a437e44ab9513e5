package service

import (
	"context"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
)

// AddTransaction inserts a transaction and prepends it to its side of the finance aggregate
func (s *DashboardState) AddTransaction(ctx context.Context, direction domain.Direction, input domain.NewTransaction) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := s.run("add_transaction", func() error {
		if err := validateDirection(direction); err != nil {
			return err
		}
		name, err := validateName("name", input.Name)
		if err != nil {
			return err
		}
		if err := validatePositive("amount", input.Amount); err != nil {
			return err
		}

		row, err := s.repos.Transactions.Create(ctx, &domain.Transaction{
			WorkspaceID: s.workspaceID,
			Name:        name,
			Amount:      input.Amount,
			Direction:   direction,
			Date:        input.Date,
		})
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("insert transaction", err)
		}
		row.Direction = direction

		s.mu.Lock()
		s.prependTransaction(*row)
		s.mu.Unlock()

		created = row
		s.publishEvent(websocket.Created(websocket.EntityTypeTransaction, row))
		return nil
	})
	return created, err
}

// EditTransaction updates a transaction and applies the amount delta to its
// item, side total and balance in one step
func (s *DashboardState) EditTransaction(ctx context.Context, direction domain.Direction, id int32, patch domain.TransactionPatch) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := s.run("edit_transaction", func() error {
		if err := validateDirection(direction); err != nil {
			return err
		}

		s.mu.RLock()
		side := s.finance.Side(direction)
		idx := side.IndexOf(id)
		var current domain.Transaction
		if idx >= 0 {
			current = side.Transactions[idx]
		}
		s.mu.RUnlock()
		if idx < 0 {
			return domain.NewNotFoundError("transaction", id)
		}

		if patch.Name != nil {
			name, err := validateName("name", *patch.Name)
			if err != nil {
				return err
			}
			patch.Name = &name
		}
		if patch.Amount != nil {
			if err := validatePositive("amount", *patch.Amount); err != nil {
				return err
			}
		}

		next := patch.Apply(current)
		row, err := s.repos.Transactions.Update(ctx, &next)
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("update transaction", err)
		}
		row.Direction = direction

		s.mu.Lock()
		side = s.finance.Side(direction)
		if i := side.IndexOf(id); i >= 0 {
			delta := row.Amount.Sub(side.Transactions[i].Amount)
			side.Transactions[i] = *row
			side.Total = side.Total.Add(delta)
			side.Trend = moneyTrend(side.Transactions)
			s.finance.Rebalance()
		}
		s.mu.Unlock()

		updated = row
		s.publishEvent(websocket.Updated(websocket.EntityTypeTransaction, row))
		return nil
	})
	return updated, err
}

// RemoveTransaction deletes a transaction and subtracts its amount. An id that
// is not present locally is a no-op.
func (s *DashboardState) RemoveTransaction(ctx context.Context, direction domain.Direction, id int32) error {
	return s.run("remove_transaction", func() error {
		if err := validateDirection(direction); err != nil {
			return err
		}

		s.mu.RLock()
		idx := s.finance.Side(direction).IndexOf(id)
		s.mu.RUnlock()
		if idx < 0 {
			s.logger.Warn().Int32("transaction_id", id).Str("direction", string(direction)).Msg("Transaction not in dashboard, nothing to remove")
			return nil
		}

		if err := s.repos.Transactions.Delete(ctx, s.workspaceID, id); err != nil {
			return domain.NewRemoteWriteError("delete transaction", err)
		}

		s.mu.Lock()
		removed, _ := s.dropTransaction(direction, id)
		s.mu.Unlock()

		s.publishEvent(websocket.Deleted(websocket.EntityTypeTransaction, removed))
		return nil
	})
}

// prependTransaction adds a row at the front of its side. Caller holds mu.
func (s *DashboardState) prependTransaction(t domain.Transaction) {
	side := s.finance.Side(t.Direction)
	side.Transactions = append([]domain.Transaction{t}, side.Transactions...)
	side.Total = side.Total.Add(t.Amount)
	side.Trend = moneyTrend(side.Transactions)
	s.finance.Rebalance()
}

// dropTransaction removes a row by id from one side. Caller holds mu.
func (s *DashboardState) dropTransaction(direction domain.Direction, id int32) (domain.Transaction, bool) {
	side := s.finance.Side(direction)
	idx := side.IndexOf(id)
	if idx < 0 {
		return domain.Transaction{}, false
	}
	removed := side.Transactions[idx]
	side.Transactions = append(side.Transactions[:idx:idx], side.Transactions[idx+1:]...)
	side.Total = side.Total.Sub(removed.Amount)
	side.Trend = moneyTrend(side.Transactions)
	s.finance.Rebalance()
	return removed, true
}
