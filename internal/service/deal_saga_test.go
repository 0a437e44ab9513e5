package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardState_AddWonDeal(t *testing.T) {
	repos := newTestRepos()
	repos.seedDeal(t, "Audit", "Globex", 500, domain.DealStatusPending)
	state, publisher := newLoadedState(t, repos)
	before := state.Snapshot()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	result, err := state.AddDeal(context.Background(), domain.NewDeal{
		Name:    "T.E.R.I Customer Service",
		Company: "Acme",
		Value:   decimal.NewFromInt(1000),
		Status:  "WON",
		Date:    date,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Project)
	after := state.Snapshot()

	assert.True(t, after.Sales.TotalRevenue.Sub(before.Sales.TotalRevenue).Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, before.Sales.Deals.Count+1, after.Sales.Deals.Count)
	assert.Equal(t, result.Deal.ID, after.Sales.Deals.Recent[0].ID)
	assert.Equal(t, domain.DealStatusWon, result.Deal.Status)

	assert.Equal(t, "Deal: T.E.R.I Customer Service with Acme", result.Transaction.Name)
	require.NotNil(t, result.Transaction.SourceDealID)
	assert.Equal(t, result.Deal.ID, *result.Transaction.SourceDealID)
	assert.Equal(t, date, result.Transaction.Date)
	assert.Equal(t, result.Transaction.ID, after.Finance.MoneyIn.Transactions[0].ID)
	assert.True(t, after.Finance.MoneyIn.Total.Sub(before.Finance.MoneyIn.Total).Equal(decimal.NewFromInt(1000)))
	assertBalanced(t, after.Finance)

	assert.Equal(t, 1, repos.projects.Count())
	assert.Equal(t, []domain.Module{domain.ModuleSales, domain.ModuleCustomerService}, result.Project.Modules)
	assert.Equal(t, domain.ProjectStatusActive, result.Project.Status)
	assert.Equal(t, "Acme", result.Project.Client)
	assert.Equal(t, before.Product.Metrics.ActiveProjects+1, after.Product.Metrics.ActiveProjects)

	assert.Equal(t, []string{"deal.created", "transaction.created", "project.created"}, publisher.Types()[1:])
}

func TestDashboardState_AddPendingDealCreatesNoProject(t *testing.T) {
	repos := newTestRepos()
	state, _ := newLoadedState(t, repos)

	result, err := state.AddDeal(context.Background(), domain.NewDeal{Name: "Audit", Company: "Globex", Value: decimal.NewFromInt(500)})

	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusPending, result.Deal.Status)
	assert.Nil(t, result.Project)
	assert.Equal(t, 0, repos.projects.Count())
	assert.Equal(t, 0, state.Snapshot().Product.Metrics.ActiveProjects)
}

func TestDashboardState_AddDealValidation(t *testing.T) {
	tests := []struct {
		name  string
		input domain.NewDeal
	}{
		{"blank name", domain.NewDeal{Name: " ", Company: "Acme", Value: decimal.NewFromInt(1)}},
		{"blank company", domain.NewDeal{Name: "Support", Value: decimal.NewFromInt(1)}},
		{"zero value", domain.NewDeal{Name: "Support", Company: "Acme", Value: decimal.Zero}},
		{"unknown status", domain.NewDeal{Name: "Support", Company: "Acme", Value: decimal.NewFromInt(1), Status: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := newTestRepos()
			state, _ := newLoadedState(t, repos)

			_, err := state.AddDeal(context.Background(), tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, 0, repos.deals.Count())
		})
	}
}

func TestDashboardState_AddDealCompensatesOnProjectFailure(t *testing.T) {
	repos := newTestRepos()
	state, publisher := newLoadedState(t, repos)
	before := state.Snapshot()
	repos.projects.CreateFn = func(project *domain.Project) (*domain.Project, error) {
		return nil, errors.New("components insert failed")
	}

	result, err := state.AddDeal(context.Background(), domain.NewDeal{
		Name:    "Support",
		Company: "Acme",
		Value:   decimal.NewFromInt(1000),
		Status:  domain.DealStatusWon,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.Equal(t, 0, repos.deals.Count())
	assert.Equal(t, 0, repos.transactions.Count())

	after := state.Snapshot()
	assert.Equal(t, before.Sales, after.Sales)
	assert.Equal(t, before.Finance, after.Finance)
	assert.Equal(t, domain.OperationFailed, after.Status.State)
	assert.False(t, publisher.HasType("deal.created"))
}

func TestDashboardState_AddDealCompensatesOnTransactionFailure(t *testing.T) {
	repos := newTestRepos()
	state, _ := newLoadedState(t, repos)
	repos.transactions.CreateFn = func(tx *domain.Transaction) (*domain.Transaction, error) {
		return nil, nil
	}

	_, err := state.AddDeal(context.Background(), domain.NewDeal{Name: "Support", Company: "Acme", Value: decimal.NewFromInt(1000)})

	assert.ErrorIs(t, err, domain.ErrNoRowReturned)
	assert.Equal(t, 0, repos.deals.Count())
	assert.Equal(t, 0, state.Snapshot().Sales.Deals.Count)
}

func TestDashboardState_AddDealJoinsCompensationErrors(t *testing.T) {
	repos := newTestRepos()
	state, _ := newLoadedState(t, repos)
	cleanupErr := errors.New("delete deal failed")
	repos.transactions.CreateFn = func(tx *domain.Transaction) (*domain.Transaction, error) {
		return nil, errors.New("insert rejected")
	}
	repos.deals.DeleteFn = func(workspaceID, id int32) error {
		return cleanupErr
	}

	_, err := state.AddDeal(context.Background(), domain.NewDeal{Name: "Support", Company: "Acme", Value: decimal.NewFromInt(1000)})

	assert.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.ErrorIs(t, err, cleanupErr)
	assert.Equal(t, 1, repos.deals.Count())
}

func TestDealSaga_CompensatesInReverseWithoutCancel(t *testing.T) {
	repos := newTestRepos()
	var order []string
	repos.projects.CreateFn = func(project *domain.Project) (*domain.Project, error) {
		return nil, errors.New("boom")
	}
	repos.transactions.DeleteFn = func(workspaceID, id int32) error {
		order = append(order, "transaction")
		return nil
	}
	repos.deals.DeleteFn = func(workspaceID, id int32) error {
		order = append(order, "deal")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	saga := newDealSaga(testWorkspaceID, repos.dashboard(), domain.NewDeal{
		Name:    "Support",
		Company: "Acme",
		Value:   decimal.NewFromInt(10),
		Status:  domain.DealStatusWon,
	}, zerolog.Nop())
	saga.repos.Deals = cancelAfterCreate{DealRepository: repos.deals, cancel: cancel}

	err := saga.run(ctx)

	require.Error(t, err)
	assert.Equal(t, []string{"transaction", "deal"}, order)
	assert.Equal(t, DealSagaCompensated, saga.state)
}

// cancelAfterCreate cancels the saga context once the deal row exists
type cancelAfterCreate struct {
	domain.DealRepository
	cancel context.CancelFunc
}

func (c cancelAfterCreate) Create(ctx context.Context, deal *domain.Deal) (*domain.Deal, error) {
	row, err := c.DealRepository.Create(ctx, deal)
	c.cancel()
	return row, err
}

func (c cancelAfterCreate) Delete(ctx context.Context, workspaceID, id int32) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return c.DealRepository.Delete(ctx, workspaceID, id)
}

func TestDealSaga_CommitsAndClearsCompensations(t *testing.T) {
	repos := newTestRepos()
	saga := newDealSaga(testWorkspaceID, repos.dashboard(), domain.NewDeal{
		Name:    "Support",
		Company: "Acme",
		Value:   decimal.NewFromInt(10),
		Status:  domain.DealStatusWon,
	}, zerolog.Nop())

	require.NoError(t, saga.run(context.Background()))

	assert.Equal(t, DealSagaCommitted, saga.state)
	assert.Empty(t, saga.undo)
	result := saga.result()
	assert.NotNil(t, result.Project)
	assert.Equal(t, 1, repos.deals.Count())
	assert.Equal(t, 1, repos.transactions.Count())
	assert.Equal(t, 1, repos.projects.Count())
}
