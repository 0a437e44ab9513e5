package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboard struct {
	deals     []domain.NewDeal
	leads     []domain.NewLead
	removed   []string
	returnErr error
}

func (f *fakeDashboard) AddDeal(ctx context.Context, input domain.NewDeal) (*domain.DealResult, error) {
	f.deals = append(f.deals, input)
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	return &domain.DealResult{}, nil
}

func (f *fakeDashboard) AddLead(ctx context.Context, input domain.NewLead) (*domain.Lead, error) {
	f.leads = append(f.leads, input)
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	return &domain.Lead{Name: input.Name, Company: input.Company, Status: input.Status}, nil
}

func (f *fakeDashboard) RemoveLeadByCompany(ctx context.Context, company string) ([]domain.Lead, error) {
	f.removed = append(f.removed, company)
	return nil, f.returnErr
}

func TestParse_AddLead(t *testing.T) {
	interp := NewInterpreter(2024, "")

	result := interp.Parse("new lead from Acme")

	assert.True(t, result.Recognized)
	assert.Equal(t, IntentAddLead, result.Intent)
	assert.Equal(t, "✨ Added new lead from Acme", result.Message)
	require.NotNil(t, result.Action)

	dash := &fakeDashboard{}
	require.NoError(t, result.Action(context.Background(), dash))
	require.Len(t, dash.leads, 1)
	assert.Equal(t, "Acme", dash.leads[0].Company)
	assert.Equal(t, "Contact from Acme", dash.leads[0].Name)
	assert.Equal(t, "New", dash.leads[0].Status)
}

func TestParse_AddLeadVariants(t *testing.T) {
	interp := NewInterpreter(2024, "")

	tests := []struct {
		text    string
		company string
	}{
		{"lead from Globex", "Globex"},
		{"New Leads from Initech", "Initech"},
		{"please add a new lead Umbrella", "Umbrella"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result := interp.Parse(tt.text)
			assert.True(t, result.Recognized)
			assert.Equal(t, IntentAddLead, result.Intent)

			dash := &fakeDashboard{}
			require.NoError(t, result.Action(context.Background(), dash))
			require.Len(t, dash.leads, 1)
			assert.Equal(t, tt.company, dash.leads[0].Company)
		})
	}
}

func TestParse_RemoveLead(t *testing.T) {
	interp := NewInterpreter(2024, "")

	result := interp.Parse("remove lead from Acme")

	assert.True(t, result.Recognized)
	assert.Equal(t, IntentRemoveLead, result.Intent)
	assert.Equal(t, "🗑️ Removed lead from Acme", result.Message)

	dash := &fakeDashboard{}
	require.NoError(t, result.Action(context.Background(), dash))
	assert.Equal(t, []string{"Acme"}, dash.removed)
	assert.Empty(t, dash.leads)
}

func TestParse_ClientDeal(t *testing.T) {
	interp := NewInterpreter(2024, "")

	result := interp.Parse("new client called Acme at 5 of March for 1000 usd")

	assert.True(t, result.Recognized)
	assert.Equal(t, IntentClientDeal, result.Intent)
	assert.Equal(t, "💼 Added new client deal:\n📅 5 March\n💰 $1000\n🏢 Acme", result.Message)

	dash := &fakeDashboard{}
	require.NoError(t, result.Action(context.Background(), dash))
	require.Len(t, dash.deals, 1)

	deal := dash.deals[0]
	assert.Equal(t, DefaultDealLabel, deal.Name)
	assert.Equal(t, "Acme", deal.Company)
	assert.True(t, deal.Value.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, domain.DealStatusWon, deal.Status)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), deal.Date)
}

func TestParse_ClientDealUsesConfiguredYearAndLabel(t *testing.T) {
	interp := NewInterpreter(2025, "Support Module")

	result := interp.Parse("client Initech 28 feb 250")
	require.True(t, result.Recognized)

	dash := &fakeDashboard{}
	require.NoError(t, result.Action(context.Background(), dash))
	require.Len(t, dash.deals, 1)
	assert.Equal(t, "Support Module", dash.deals[0].Name)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), dash.deals[0].Date)
}

func TestParse_ClientDealWinsOverLead(t *testing.T) {
	interp := NewInterpreter(2024, "")

	result := interp.Parse("new client called Leads at 1 of jan for 10")

	assert.Equal(t, IntentClientDeal, result.Intent)
}

func TestParse_ClientDealInvalidDate(t *testing.T) {
	interp := NewInterpreter(2024, "")

	tests := []string{
		"client Acme 31 feb 100",
		"client Acme 0 march 100",
		"client Acme 5 xyz 100",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			result := interp.Parse(text)
			assert.False(t, result.Recognized)
			assert.Equal(t, IntentClientDeal, result.Intent)
			assert.Equal(t, "❌ Please provide a valid day and month", result.Message)
			assert.Nil(t, result.Action)
		})
	}
}

func TestParse_ClientDealZeroAmount(t *testing.T) {
	interp := NewInterpreter(2024, "")

	result := interp.Parse("client Acme 5 march 0")

	assert.False(t, result.Recognized)
	assert.Equal(t, "❌ Please provide valid numbers for day and amount", result.Message)
	assert.Nil(t, result.Action)
}

func TestParse_NotRecognized(t *testing.T) {
	interp := NewInterpreter(2024, "")

	result := interp.Parse("xyz nonsense")

	assert.False(t, result.Recognized)
	assert.Equal(t, IntentNone, result.Intent)
	assert.Equal(t, NotRecognizedMessage, result.Message)
	assert.Nil(t, result.Action)
}

func TestParse_ActionPropagatesError(t *testing.T) {
	interp := NewInterpreter(2024, "")
	remoteErr := domain.NewRemoteWriteError("insert lead", errors.New("connection refused"))

	result := interp.Parse("new lead from Acme")
	err := result.Action(context.Background(), &fakeDashboard{returnErr: remoteErr})

	assert.ErrorIs(t, err, domain.ErrRemoteWrite)
}

func TestParse_DoesNotRunAction(t *testing.T) {
	interp := NewInterpreter(2024, "")
	dash := &fakeDashboard{}

	_ = interp.Parse("new lead from Acme")

	assert.Empty(t, dash.leads)
}
