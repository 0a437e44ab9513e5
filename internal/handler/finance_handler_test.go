package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction_Success(t *testing.T) {
	f := newDashboardFixture()
	h := NewFinanceHandler()

	rec := f.call(t, http.MethodPost, "/api/v1/finance/in/transactions",
		`{"name":"Consulting","amount":"500","date":"2024-03-05"}`, params("direction", "in"), h.CreateTransaction)

	assert.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Transaction](t, rec)
	assert.Equal(t, "Consulting", created.Name)
	assert.Equal(t, domain.DirectionIn, created.Direction)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), created.Date)

	snap := f.session(t).Snapshot()
	assert.True(t, snap.Finance.MoneyIn.Total.Equal(decimal.NewFromInt(500)))
	assert.True(t, snap.Finance.Balance.Equal(decimal.NewFromInt(500)))
}

func TestCreateTransaction_InvalidDirection(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/finance/sideways/transactions",
		`{"name":"Consulting","amount":"500"}`, params("direction", "sideways"), NewFinanceHandler().CreateTransaction)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "direction", problem.Errors[0].Field)
	assert.Equal(t, 0, f.transactions.Count())
}

func TestCreateTransaction_InvalidAmount(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/finance/out/transactions",
		`{"name":"Hosting","amount":"lots"}`, params("direction", "out"), NewFinanceHandler().CreateTransaction)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "amount", problem.Errors[0].Field)
}

func TestCreateTransaction_NonPositiveAmount(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/finance/out/transactions",
		`{"name":"Hosting","amount":"-20"}`, params("direction", "out"), NewFinanceHandler().CreateTransaction)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "amount", problem.Errors[0].Field)
	assert.Equal(t, 0, f.transactions.Count())
}

func TestCreateTransaction_RemoteFailureLeavesStateUnchanged(t *testing.T) {
	f := newDashboardFixture()
	f.transactions.CreateFn = func(transaction *domain.Transaction) (*domain.Transaction, error) {
		return nil, errors.New("insert rejected")
	}

	rec := f.call(t, http.MethodPost, "/api/v1/finance/out/transactions",
		`{"name":"Hosting","amount":"20"}`, params("direction", "out"), NewFinanceHandler().CreateTransaction)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	snap := f.session(t).Snapshot()
	assert.Empty(t, snap.Finance.MoneyOut.Transactions)
	assert.True(t, snap.Finance.Balance.IsZero())
	assert.Equal(t, domain.OperationFailed, snap.Status.State)
}

func TestUpdateTransaction_AppliesAmountDelta(t *testing.T) {
	f := newDashboardFixture()
	h := NewFinanceHandler()
	created := decode[domain.Transaction](t, f.call(t, http.MethodPost, "/api/v1/finance/out/transactions",
		`{"name":"Hosting","amount":"20"}`, params("direction", "out"), h.CreateTransaction))

	rec := f.call(t, http.MethodPut, "/api/v1/finance/out/transactions/1",
		`{"amount":"35.50"}`, params("direction", "out", "id", "1"), h.UpdateTransaction)

	assert.Equal(t, http.StatusOK, rec.Code)
	updated := decode[domain.Transaction](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Hosting", updated.Name)

	snap := f.session(t).Snapshot()
	assert.True(t, snap.Finance.MoneyOut.Total.Equal(decimal.RequireFromString("35.50")))
	assert.True(t, snap.Finance.Balance.Equal(decimal.RequireFromString("-35.50")))
}

func TestUpdateTransaction_NotLoaded(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPut, "/api/v1/finance/in/transactions/99",
		`{"name":"Renamed"}`, params("direction", "in", "id", "99"), NewFinanceHandler().UpdateTransaction)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorTypeNotFound, problemOf(t, rec).Type)
}

func TestUpdateTransaction_InvalidID(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPut, "/api/v1/finance/in/transactions/abc",
		`{"name":"Renamed"}`, params("direction", "in", "id", "abc"), NewFinanceHandler().UpdateTransaction)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "id", problem.Errors[0].Field)
}

func TestDeleteTransaction_Success(t *testing.T) {
	f := newDashboardFixture()
	h := NewFinanceHandler()
	f.call(t, http.MethodPost, "/api/v1/finance/in/transactions",
		`{"name":"Consulting","amount":"500"}`, params("direction", "in"), h.CreateTransaction)

	rec := f.call(t, http.MethodDelete, "/api/v1/finance/in/transactions/1", "",
		params("direction", "in", "id", "1"), h.DeleteTransaction)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, f.transactions.Count())
	snap := f.session(t).Snapshot()
	assert.Empty(t, snap.Finance.MoneyIn.Transactions)
	assert.True(t, snap.Finance.Balance.IsZero())
}

func TestDeleteTransaction_UnknownIDIsNoop(t *testing.T) {
	f := newDashboardFixture()
	deleteCalls := 0
	f.transactions.DeleteFn = func(workspaceID, id int32) error {
		deleteCalls++
		return nil
	}

	rec := f.call(t, http.MethodDelete, "/api/v1/finance/in/transactions/42", "",
		params("direction", "in", "id", "42"), NewFinanceHandler().DeleteTransaction)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, deleteCalls)
}
