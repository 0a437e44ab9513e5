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

func TestCreateLead_DefaultsStatus(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/leads",
		`{"name":"Jane","company":"Acme"}`, nil, NewSalesHandler().CreateLead)

	assert.Equal(t, http.StatusCreated, rec.Code)
	lead := decode[domain.Lead](t, rec)
	assert.Equal(t, "Acme", lead.Company)
	assert.Equal(t, domain.DefaultLeadStatus, lead.Status)
	assert.Equal(t, 1, f.session(t).Snapshot().Sales.Leads.Count)
}

func TestCreateLead_MissingCompany(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/leads", `{"name":"Jane"}`, nil, NewSalesHandler().CreateLead)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "company", problem.Errors[0].Field)
	assert.Equal(t, 0, f.leads.Count())
}

func TestUpdateLead_KeepsOmittedFields(t *testing.T) {
	f := newDashboardFixture()
	h := NewSalesHandler()
	f.call(t, http.MethodPost, "/api/v1/leads", `{"name":"Jane","company":"Acme"}`, nil, h.CreateLead)

	rec := f.call(t, http.MethodPut, "/api/v1/leads/1", `{"status":"Qualified"}`, params("id", "1"), h.UpdateLead)

	assert.Equal(t, http.StatusOK, rec.Code)
	lead := decode[domain.Lead](t, rec)
	assert.Equal(t, "Jane", lead.Name)
	assert.Equal(t, "Qualified", lead.Status)
}

func TestDeleteLeadsByCompany(t *testing.T) {
	f := newDashboardFixture()
	h := NewSalesHandler()
	f.call(t, http.MethodPost, "/api/v1/leads", `{"name":"Jane","company":"Acme"}`, nil, h.CreateLead)
	f.call(t, http.MethodPost, "/api/v1/leads", `{"name":"Bob","company":"acme "}`, nil, h.CreateLead)
	f.call(t, http.MethodPost, "/api/v1/leads", `{"name":"Ann","company":"Globex"}`, nil, h.CreateLead)

	rec := f.call(t, http.MethodDelete, "/api/v1/leads?company=ACME", "", nil, h.DeleteLeadsByCompany)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RemovedLeadsResponse](t, rec)
	assert.Len(t, resp.Removed, 2)
	assert.Equal(t, 1, f.leads.Count())
	assert.Equal(t, 1, f.session(t).Snapshot().Sales.Leads.Count)
}

func TestDeleteLeadsByCompany_NoMatchReturnsEmptyList(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodDelete, "/api/v1/leads?company=Initech", "", nil, NewSalesHandler().DeleteLeadsByCompany)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":[]}`, rec.Body.String())
}

func TestDeleteLeadsByCompany_MissingCompany(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodDelete, "/api/v1/leads", "", nil, NewSalesHandler().DeleteLeadsByCompany)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMeeting_Success(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/meetings",
		`{"name":"Kickoff","company":"Acme","scheduledTime":"2024-03-05T10:00:00Z"}`, nil, NewSalesHandler().CreateMeeting)

	assert.Equal(t, http.StatusCreated, rec.Code)
	meeting := decode[domain.Meeting](t, rec)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), meeting.ScheduledTime.UTC())
}

func TestCreateMeeting_InvalidScheduledTime(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/meetings",
		`{"name":"Kickoff","company":"Acme","scheduledTime":"tomorrow"}`, nil, NewSalesHandler().CreateMeeting)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "scheduledTime", problem.Errors[0].Field)
}

func TestCreateMeeting_MissingScheduledTime(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/meetings",
		`{"name":"Kickoff","company":"Acme"}`, nil, NewSalesHandler().CreateMeeting)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "scheduledTime", problem.Errors[0].Field)
}

func TestCreateDeal_WonCreatesProjectAndIncome(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/deals",
		`{"name":"Support","company":"Acme","value":"1000","status":"won","date":"2024-03-05"}`, nil, NewSalesHandler().CreateDeal)

	assert.Equal(t, http.StatusCreated, rec.Code)
	result := decode[domain.DealResult](t, rec)
	assert.Equal(t, domain.DealStatusWon, result.Deal.Status)
	assert.True(t, result.Transaction.Amount.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, result.Project)
	assert.Equal(t, domain.DealProjectModules, result.Project.Modules)

	snap := f.session(t).Snapshot()
	assert.True(t, snap.Sales.TotalRevenue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, snap.Finance.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, snap.Product.Metrics.ActiveProjects)
}

func TestCreateDeal_InvalidStatus(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPost, "/api/v1/deals",
		`{"name":"Support","company":"Acme","value":"1000","status":"maybe"}`, nil, NewSalesHandler().CreateDeal)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := problemOf(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "status", problem.Errors[0].Field)
	assert.Equal(t, 0, f.deals.Count())
}

func TestCreateDeal_RollsBackOnProjectFailure(t *testing.T) {
	f := newDashboardFixture()
	f.projects.CreateFn = func(project *domain.Project) (*domain.Project, error) {
		return nil, errors.New("insert rejected")
	}

	rec := f.call(t, http.MethodPost, "/api/v1/deals",
		`{"name":"Support","company":"Acme","value":"1000","status":"won"}`, nil, NewSalesHandler().CreateDeal)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 0, f.deals.Count())
	assert.Equal(t, 0, f.transactions.Count())

	snap := f.session(t).Snapshot()
	assert.Equal(t, 0, snap.Sales.Deals.Count)
	assert.True(t, snap.Finance.Balance.IsZero())
}

func TestUpdateDeal_NotFound(t *testing.T) {
	f := newDashboardFixture()

	rec := f.call(t, http.MethodPut, "/api/v1/deals/7", `{"value":"10"}`, params("id", "7"), NewSalesHandler().UpdateDeal)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDeal_Success(t *testing.T) {
	f := newDashboardFixture()
	h := NewSalesHandler()
	f.call(t, http.MethodPost, "/api/v1/deals",
		`{"name":"Support","company":"Acme","value":"1000","status":"pending"}`, nil, h.CreateDeal)

	rec := f.call(t, http.MethodDelete, "/api/v1/deals/1", "", params("id", "1"), h.DeleteDeal)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, f.deals.Count())
	assert.Equal(t, 0, f.session(t).Snapshot().Sales.Deals.Count)
}
