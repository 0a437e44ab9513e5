package command

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Intent is the kind of command recognized in a chat message
type Intent string

const (
	IntentNone       Intent = ""
	IntentClientDeal Intent = "client_deal"
	IntentAddLead    Intent = "add_lead"
	IntentRemoveLead Intent = "remove_lead"
)

const (
	// NotRecognizedMessage is returned when no pattern matches
	NotRecognizedMessage  = "❌ Command not recognized. Please try rephrasing your request."
	invalidNumbersMessage = "❌ Please provide valid numbers for day and amount"
	invalidDateMessage    = "❌ Please provide a valid day and month"
)

// DefaultDealLabel is the deal name used for client deals
const DefaultDealLabel = "T.E.R.I Customer Service"

// Dashboard is the set of dashboard operations a command can run
type Dashboard interface {
	AddDeal(ctx context.Context, input domain.NewDeal) (*domain.DealResult, error)
	AddLead(ctx context.Context, input domain.NewLead) (*domain.Lead, error)
	RemoveLeadByCompany(ctx context.Context, company string) ([]domain.Lead, error)
}

// Action is a parsed command waiting to be run against a dashboard
type Action func(ctx context.Context, d Dashboard) error

// Result is the outcome of parsing one message. Action is nil unless the
// message was recognized.
type Result struct {
	Recognized bool
	Intent     Intent
	Message    string
	Action     Action
}

var (
	clientDealPattern = regexp.MustCompile(`(?i)(?:new\s+)?client\s+(?:called\s+)?(\w+)\s+(?:at\s+)?(\d+)\s+(?:of\s+)?([a-z]+)\s+(?:for\s+)?\$?(\d+(?:\.\d+)?)(?:\s*usd)?`)
	addLeadPattern    = regexp.MustCompile(`(?i)(?:new\s+)?leads?\s+(?:from\s+)?(\w+)`)
	removeLeadPattern = regexp.MustCompile(`(?i)remove\s+leads?\s+(?:from\s+)?(\w+)`)
	removePrefix      = regexp.MustCompile(`(?i)\bremove\s+$`)
)

// Interpreter turns free text into dashboard commands. Patterns are tried in
// order and the first match wins. Parse never runs the action it returns.
type Interpreter struct {
	dealYear  int
	dealLabel string
}

// NewInterpreter creates an interpreter that dates client deals in dealYear
func NewInterpreter(dealYear int, dealLabel string) *Interpreter {
	if dealLabel == "" {
		dealLabel = DefaultDealLabel
	}
	return &Interpreter{dealYear: dealYear, dealLabel: dealLabel}
}

// Parse classifies text into an intent and the action that carries it out
func (i *Interpreter) Parse(text string) Result {
	text = strings.TrimSpace(text)

	if m := clientDealPattern.FindStringSubmatch(text); m != nil {
		return i.clientDeal(m[1], m[2], m[3], m[4])
	}
	if m := addLeadPattern.FindStringSubmatchIndex(text); m != nil && !removePrefix.MatchString(text[:m[0]]) {
		return addLead(text[m[2]:m[3]])
	}
	if m := removeLeadPattern.FindStringSubmatch(text); m != nil {
		return removeLead(m[1])
	}
	return Result{Message: NotRecognizedMessage}
}

func (i *Interpreter) clientDeal(client, dayText, monthText, amountText string) Result {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return Result{Intent: IntentClientDeal, Message: invalidNumbersMessage}
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil || !amount.IsPositive() {
		return Result{Intent: IntentClientDeal, Message: invalidNumbersMessage}
	}
	date, ok := i.dealDate(day, monthText)
	if !ok {
		return Result{Intent: IntentClientDeal, Message: invalidDateMessage}
	}

	input := domain.NewDeal{
		Name:    i.dealLabel,
		Company: client,
		Value:   amount,
		Status:  domain.DealStatusWon,
		Date:    date,
	}
	return Result{
		Recognized: true,
		Intent:     IntentClientDeal,
		Message: fmt.Sprintf("💼 Added new client deal:\n📅 %d %s\n💰 $%s\n🏢 %s",
			day, monthText, amount.String(), client),
		Action: func(ctx context.Context, d Dashboard) error {
			_, err := d.AddDeal(ctx, input)
			return err
		},
	}
}

// dealDate builds a date from a day and a month name, full or abbreviated
func (i *Interpreter) dealDate(day int, month string) (time.Time, bool) {
	if len(month) < 3 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	abbrev := strings.ToUpper(month[:1]) + strings.ToLower(month[1:3])
	date, err := time.Parse("2006-Jan-02", fmt.Sprintf("%04d-%s-%02d", i.dealYear, abbrev, day))
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func addLead(company string) Result {
	input := domain.NewLead{
		Name:    "Contact from " + company,
		Company: company,
		Status:  domain.DefaultLeadStatus,
	}
	return Result{
		Recognized: true,
		Intent:     IntentAddLead,
		Message:    fmt.Sprintf("✨ Added new lead from %s", company),
		Action: func(ctx context.Context, d Dashboard) error {
			_, err := d.AddLead(ctx, input)
			return err
		},
	}
}

func removeLead(company string) Result {
	return Result{
		Recognized: true,
		Intent:     IntentRemoveLead,
		Message:    fmt.Sprintf("🗑️ Removed lead from %s", company),
		Action: func(ctx context.Context, d Dashboard) error {
			_, err := d.RemoveLeadByCompany(ctx, company)
			return err
		},
	}
}
