package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// DealSagaState is the progress of an AddDeal saga
type DealSagaState string

const (
	DealSagaStarted             DealSagaState = "started"
	DealSagaDealInserted        DealSagaState = "deal_inserted"
	DealSagaTransactionInserted DealSagaState = "transaction_inserted"
	DealSagaProjectInserted     DealSagaState = "project_inserted"
	DealSagaCommitted           DealSagaState = "committed"
	DealSagaCompensated         DealSagaState = "compensated"
)

// PairedTransactionName is the description of the income row inserted with a new deal
func PairedTransactionName(name, company string) string {
	return fmt.Sprintf("Deal: %s with %s", name, company)
}

// dealSaga writes a deal, its income transaction and, for won deals, a project.
// Each step records a compensation; a failed step undoes the earlier ones in
// reverse. Steps whose row already exists are skipped, so run can be retried.
type dealSaga struct {
	workspaceID int32
	repos       DashboardRepositories
	logger      zerolog.Logger

	input       domain.NewDeal
	state       DealSagaState
	deal        *domain.Deal
	transaction *domain.Transaction
	project     *domain.Project
	undo        []sagaCompensation
}

type sagaCompensation struct {
	name string
	fn   func(ctx context.Context) error
}

func newDealSaga(workspaceID int32, repos DashboardRepositories, input domain.NewDeal, logger zerolog.Logger) *dealSaga {
	return &dealSaga{
		workspaceID: workspaceID,
		repos:       repos,
		input:       input,
		state:       DealSagaStarted,
		logger:      logger.With().Str("saga", "add_deal").Logger(),
	}
}

func (g *dealSaga) run(ctx context.Context) error {
	steps := []func(context.Context) error{
		g.insertDeal,
		g.insertTransaction,
		g.insertProject,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return g.compensate(ctx, err)
		}
	}
	g.state = DealSagaCommitted
	g.undo = nil
	return nil
}

func (g *dealSaga) insertDeal(ctx context.Context) error {
	if g.deal != nil {
		return nil
	}
	row, err := g.repos.Deals.Create(ctx, &domain.Deal{
		WorkspaceID: g.workspaceID,
		Name:        g.input.Name,
		Company:     g.input.Company,
		Value:       g.input.Value,
		Status:      g.input.Status,
		Date:        g.input.Date,
	})
	if err != nil || row == nil {
		return domain.NewRemoteWriteError("insert deal", err)
	}
	g.deal = row
	g.state = DealSagaDealInserted
	g.undo = append(g.undo, sagaCompensation{name: "delete deal", fn: func(ctx context.Context) error {
		return g.repos.Deals.Delete(ctx, g.workspaceID, row.ID)
	}})
	return nil
}

func (g *dealSaga) insertTransaction(ctx context.Context) error {
	if g.transaction != nil {
		return nil
	}
	dealID := g.deal.ID
	row, err := g.repos.Transactions.Create(ctx, &domain.Transaction{
		WorkspaceID:  g.workspaceID,
		Name:         PairedTransactionName(g.deal.Name, g.deal.Company),
		Amount:       g.deal.Value,
		Direction:    domain.DirectionIn,
		Date:         g.deal.Date,
		SourceDealID: &dealID,
	})
	if err != nil || row == nil {
		return domain.NewRemoteWriteError("insert deal transaction", err)
	}
	row.Direction = domain.DirectionIn
	g.transaction = row
	g.state = DealSagaTransactionInserted
	g.undo = append(g.undo, sagaCompensation{name: "delete deal transaction", fn: func(ctx context.Context) error {
		return g.repos.Transactions.Delete(ctx, g.workspaceID, row.ID)
	}})
	return nil
}

func (g *dealSaga) insertProject(ctx context.Context) error {
	if g.deal.Status != domain.DealStatusWon || g.project != nil {
		return nil
	}
	row, err := g.repos.Projects.Create(ctx, &domain.Project{
		WorkspaceID: g.workspaceID,
		Name:        g.deal.Name,
		Client:      g.deal.Company,
		Modules:     append([]domain.Module(nil), domain.DealProjectModules...),
		Status:      domain.ProjectStatusActive,
	})
	if err != nil || row == nil {
		return domain.NewRemoteWriteError("insert deal project", err)
	}
	g.project = row
	g.state = DealSagaProjectInserted
	g.undo = append(g.undo, sagaCompensation{name: "delete deal project", fn: func(ctx context.Context) error {
		return g.repos.Projects.Delete(ctx, g.workspaceID, row.ID)
	}})
	return nil
}

// compensate undoes completed steps in reverse and joins any failures onto cause
func (g *dealSaga) compensate(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)
	failedAt := g.state

	errs := []error{cause}
	for i := len(g.undo) - 1; i >= 0; i-- {
		c := g.undo[i]
		if err := c.fn(ctx); err != nil {
			g.logger.Error().Err(err).Str("compensation", c.name).Msg("Compensation failed")
			errs = append(errs, fmt.Errorf("compensation %s: %w", c.name, err))
		}
	}

	g.undo = nil
	g.deal, g.transaction, g.project = nil, nil, nil
	g.state = DealSagaCompensated

	g.logger.Warn().
		Err(cause).
		Str("failed_after", string(failedAt)).
		Int("compensation_errors", len(errs)-1).
		Msg("Deal saga rolled back")

	return errors.Join(errs...)
}

func (g *dealSaga) result() domain.DealResult {
	r := domain.DealResult{Deal: *g.deal, Transaction: *g.transaction}
	if g.project != nil {
		p := *g.project
		r.Project = &p
	}
	return r
}

// AddDeal writes a deal, its paired income transaction and, for a won deal, a
// project with the sales and customer-service modules. If any write fails the
// earlier ones are undone and local state is left unchanged; on success the
// sales, finance and product aggregates are updated together.
func (s *DashboardState) AddDeal(ctx context.Context, input domain.NewDeal) (*domain.DealResult, error) {
	var result *domain.DealResult
	err := s.run("add_deal", func() error {
		var err error
		if input.Name, err = validateName("name", input.Name); err != nil {
			return err
		}
		if input.Company, err = validateName("company", input.Company); err != nil {
			return err
		}
		if err := validatePositive("value", input.Value); err != nil {
			return err
		}
		input.Status = domain.DealStatus(strings.ToLower(strings.TrimSpace(string(input.Status))))
		if input.Status == "" {
			input.Status = domain.DealStatusPending
		}
		if !input.Status.Valid() {
			return domain.NewValidationError("status", "must be won, lost or pending")
		}

		saga := newDealSaga(s.workspaceID, s.repos, input, s.logger)
		if err := saga.run(ctx); err != nil {
			return err
		}
		r := saga.result()

		s.mu.Lock()
		deals := &s.sales.Deals
		deals.Recent = append([]domain.Deal{r.Deal}, deals.Recent...)
		deals.Trend = countTrend(deals.Count, deals.Count+1)
		deals.Count++
		s.sales.TotalRevenue = s.sales.TotalRevenue.Add(r.Deal.Value)
		s.prependTransaction(r.Transaction)
		if r.Project != nil {
			s.product.Projects = append(s.product.Projects, *r.Project)
			s.product.Recount()
		}
		s.mu.Unlock()

		result = &r
		s.publishEvent(websocket.Created(websocket.EntityTypeDeal, r.Deal))
		s.publishEvent(websocket.Created(websocket.EntityTypeTransaction, r.Transaction))
		if r.Project != nil {
			s.publishEvent(websocket.Created(websocket.EntityTypeProject, r.Project))
		}
		return nil
	})
	return result, err
}
