package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// SyncReconciler derives the deal-linked income transactions from the deal list.
// Transactions are linked to their deal through SourceDealID; income rows without
// a link were entered by hand and are never touched.
type SyncReconciler struct{}

// NewSyncReconciler creates a new SyncReconciler
func NewSyncReconciler() *SyncReconciler {
	return &SyncReconciler{}
}

// ReconcilePlan lists the income rows to create, rewrite and delete so every
// deal has exactly one matching linked transaction
type ReconcilePlan struct {
	Create []domain.Transaction `json:"create"`
	Update []domain.Transaction `json:"update"`
	Delete []domain.Transaction `json:"delete"`
}

// Empty reports whether the plan changes nothing
func (p ReconcilePlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// DealTransactionName is the description of the income row a deal is reconciled to
func DealTransactionName(deal domain.Deal) string {
	return fmt.Sprintf("Deal: %s (%s)", deal.Name, deal.Company)
}

// Plan compares deals with the linked income rows. It does not mutate its inputs.
func (r *SyncReconciler) Plan(sales domain.SalesAggregate, finance domain.FinanceAggregate) ReconcilePlan {
	deals := make(map[int32]domain.Deal, len(sales.Deals.Recent))
	for _, d := range sales.Deals.Recent {
		deals[d.ID] = d
	}

	var plan ReconcilePlan
	linked := make(map[int32]bool, len(deals))
	for _, t := range finance.MoneyIn.Transactions {
		if t.SourceDealID == nil {
			continue
		}
		dealID := *t.SourceDealID
		deal, ok := deals[dealID]
		if !ok || linked[dealID] {
			plan.Delete = append(plan.Delete, t)
			continue
		}
		linked[dealID] = true

		want := linkedTransaction(deal, t)
		if !sameLinkedFields(t, want) {
			plan.Update = append(plan.Update, want)
		}
	}

	// Oldest deal first so prepending leaves the newest at the front
	for i := len(sales.Deals.Recent) - 1; i >= 0; i-- {
		d := sales.Deals.Recent[i]
		if linked[d.ID] {
			continue
		}
		linked[d.ID] = true
		plan.Create = append(plan.Create, linkedTransaction(d, domain.Transaction{
			WorkspaceID: d.WorkspaceID,
			Direction:   domain.DirectionIn,
		}))
	}
	return plan
}

// Apply merges a persisted plan into finance and recomputes totals from the rows
func (r *SyncReconciler) Apply(finance *domain.FinanceAggregate, plan ReconcilePlan) {
	in := &finance.MoneyIn

	if len(plan.Delete) > 0 {
		drop := make(map[int32]bool, len(plan.Delete))
		for _, t := range plan.Delete {
			drop[t.ID] = true
		}
		kept := make([]domain.Transaction, 0, len(in.Transactions))
		for _, t := range in.Transactions {
			if !drop[t.ID] {
				kept = append(kept, t)
			}
		}
		in.Transactions = kept
	}

	for _, t := range plan.Update {
		if i := in.IndexOf(t.ID); i >= 0 {
			in.Transactions[i] = t
		}
	}

	for _, t := range plan.Create {
		in.Transactions = append([]domain.Transaction{t}, in.Transactions...)
	}

	in.Total = decimal.Zero
	for _, t := range in.Transactions {
		in.Total = in.Total.Add(t.Amount)
	}
	in.Trend = moneyTrend(in.Transactions)
	finance.Rebalance()
}

func linkedTransaction(deal domain.Deal, base domain.Transaction) domain.Transaction {
	dealID := deal.ID
	base.Name = DealTransactionName(deal)
	base.Amount = deal.Value
	base.Date = deal.Date
	base.Direction = domain.DirectionIn
	base.SourceDealID = &dealID
	return base
}

func sameLinkedFields(a, b domain.Transaction) bool {
	return a.Name == b.Name && a.Amount.Equal(b.Amount) && a.Date.Equal(b.Date)
}

// Reconcile brings the deal-linked income rows in line with the deal list and
// persists the changes
func (s *DashboardState) Reconcile(ctx context.Context) (ReconcilePlan, error) {
	var plan ReconcilePlan
	err := s.run("reconcile", func() (err error) {
		plan, err = s.reconcile(ctx)
		return err
	})
	return plan, err
}

// reconcile persists the plan row by row and applies whatever was written.
// Caller holds writeMu.
func (s *DashboardState) reconcile(ctx context.Context) (ReconcilePlan, error) {
	s.mu.RLock()
	plan := s.reconciler.Plan(s.sales, s.finance)
	s.mu.RUnlock()

	var (
		applied ReconcilePlan
		errs    []error
	)
	for _, t := range plan.Delete {
		err := s.repos.Transactions.Delete(ctx, s.workspaceID, t.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, domain.NewRemoteWriteError("delete linked transaction", err))
			continue
		}
		applied.Delete = append(applied.Delete, t)
	}
	for _, t := range plan.Update {
		row, err := s.repos.Transactions.Update(ctx, &t)
		if err != nil || row == nil {
			errs = append(errs, domain.NewRemoteWriteError("update linked transaction", err))
			continue
		}
		row.Direction = domain.DirectionIn
		applied.Update = append(applied.Update, *row)
	}
	for _, t := range plan.Create {
		t.WorkspaceID = s.workspaceID
		row, err := s.repos.Transactions.Create(ctx, &t)
		if err != nil || row == nil {
			errs = append(errs, domain.NewRemoteWriteError("insert linked transaction", err))
			continue
		}
		row.Direction = domain.DirectionIn
		applied.Create = append(applied.Create, *row)
	}

	s.mu.Lock()
	s.reconciler.Apply(&s.finance, applied)
	finance := s.finance.Clone()
	s.mu.Unlock()

	if !applied.Empty() {
		s.logger.Info().
			Int("created", len(applied.Create)).
			Int("updated", len(applied.Update)).
			Int("deleted", len(applied.Delete)).
			Msg("Reconciled deal income")
	}
	s.publishEvent(websocket.FinanceReconciled(finance))

	return applied, errors.Join(errs...)
}
