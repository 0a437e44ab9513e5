package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardRepositories groups the remote tables a dashboard session writes to
type DashboardRepositories struct {
	Transactions domain.TransactionRepository
	Leads        domain.LeadRepository
	Deals        domain.DealRepository
	Meetings     domain.MeetingRepository
	Projects     domain.ProjectRepository
	Tasks        domain.TaskRepository
}

// DashboardState is the in-memory aggregate of one workspace's finance, sales
// and product data. Every mutation writes to the remote store first and merges
// the canonical row into local state only after the write succeeds.
//
// Mutations are serialized by writeMu, held for the whole operation including
// remote calls. mu guards the aggregates and is only held while reading or
// applying, so snapshots stay available while a remote call is in flight.
type DashboardState struct {
	workspaceID    int32
	repos          DashboardRepositories
	reconciler     *SyncReconciler
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	finance  domain.FinanceAggregate
	sales    domain.SalesAggregate
	product  domain.ProductAggregate
	tasks    map[int32][]domain.Task
	status   domain.OperationStatus
	loadedAt time.Time
	loaded   bool
	closed   bool
}

// NewDashboardState creates an empty, unloaded session for a workspace
func NewDashboardState(workspaceID int32, repos DashboardRepositories, logger zerolog.Logger) *DashboardState {
	return &DashboardState{
		workspaceID: workspaceID,
		repos:       repos,
		reconciler:  NewSyncReconciler(),
		logger: logger.With().
			Str("component", "dashboard_state").
			Int32("workspace_id", workspaceID).
			Logger(),
		tasks:  make(map[int32][]domain.Task),
		status: domain.OperationStatus{State: domain.OperationIdle},
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *DashboardState) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *DashboardState) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(s.workspaceID, event)
	}
}

// WorkspaceID returns the workspace this session belongs to
func (s *DashboardState) WorkspaceID() int32 {
	return s.workspaceID
}

// run executes op under the single-writer lock and records its lifecycle
func (s *DashboardState) run(op string, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.status = domain.OperationStatus{Operation: op, State: domain.OperationPending, UpdatedAt: time.Now().UTC()}
	s.mu.Unlock()

	err := fn()

	s.mu.Lock()
	s.status.UpdatedAt = time.Now().UTC()
	if err != nil {
		s.status.State = domain.OperationFailed
		s.status.Error = err.Error()
	} else {
		s.status.State = domain.OperationApplied
	}
	s.mu.Unlock()

	if err != nil {
		event := s.logger.Error()
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
			event = s.logger.Warn()
		}
		event.Err(err).Str("op", op).Msg("Dashboard operation failed")
	}
	return err
}

// Status returns the lifecycle of the most recent operation
func (s *DashboardState) Status() domain.OperationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Loaded reports whether Initialize has completed at least once
func (s *DashboardState) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a deep copy of the session's aggregates
func (s *DashboardState) Snapshot() domain.DashboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.DashboardSnapshot{
		WorkspaceID: s.workspaceID,
		Finance:     s.finance.Clone(),
		Sales:       s.sales.Clone(),
		Product:     s.product.Clone(),
		Status:      s.status,
		Loading:     s.status.State == domain.OperationPending,
		LoadedAt:    s.loadedAt,
	}
}

// Close ends the session; later operations fail with ErrSessionClosed
func (s *DashboardState) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tasks = make(map[int32][]domain.Task)
}

// Initialize loads every table of the workspace in parallel and rebuilds the
// aggregates from scratch
func (s *DashboardState) Initialize(ctx context.Context) error {
	return s.run("initialize", func() error {
		return s.load(ctx)
	})
}

// ensureLoaded initializes the session unless it already has been
func (s *DashboardState) ensureLoaded(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	return s.run("initialize", func() error {
		if s.Loaded() {
			return nil
		}
		return s.load(ctx)
	})
}

func (s *DashboardState) load(ctx context.Context) error {
	var (
		transactions []*domain.Transaction
		leads        []*domain.Lead
		meetings     []*domain.Meeting
		deals        []*domain.Deal
		projects     []*domain.Project
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		transactions, err = s.repos.Transactions.ListByWorkspace(gctx, s.workspaceID)
		return err
	})
	g.Go(func() (err error) {
		leads, err = s.repos.Leads.ListByWorkspace(gctx, s.workspaceID)
		return err
	})
	g.Go(func() (err error) {
		meetings, err = s.repos.Meetings.ListByWorkspace(gctx, s.workspaceID)
		return err
	})
	g.Go(func() (err error) {
		deals, err = s.repos.Deals.ListByWorkspace(gctx, s.workspaceID)
		return err
	})
	g.Go(func() (err error) {
		projects, err = s.repos.Projects.ListByWorkspace(gctx, s.workspaceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	finance := buildFinance(transactions)
	sales := buildSales(leads, deals, meetings)
	product := buildProduct(projects)

	s.mu.Lock()
	s.finance = finance
	s.sales = sales
	s.product = product
	for projectID := range s.tasks {
		if s.product.FindProject(projectID) < 0 {
			delete(s.tasks, projectID)
		}
	}
	s.loaded = true
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Debug().
		Int("transactions", len(transactions)).
		Int("leads", len(leads)).
		Int("deals", len(deals)).
		Int("meetings", len(meetings)).
		Int("projects", len(projects)).
		Msg("Dashboard loaded")

	s.publishEvent(websocket.DashboardLoaded(s.Snapshot()))
	return nil
}

func buildFinance(transactions []*domain.Transaction) domain.FinanceAggregate {
	var f domain.FinanceAggregate
	f.MoneyIn.Transactions = []domain.Transaction{}
	f.MoneyOut.Transactions = []domain.Transaction{}
	for _, t := range transactions {
		side := f.Side(t.Direction)
		side.Transactions = append(side.Transactions, *t)
		side.Total = side.Total.Add(t.Amount)
	}
	f.MoneyIn.Trend = moneyTrend(f.MoneyIn.Transactions)
	f.MoneyOut.Trend = moneyTrend(f.MoneyOut.Transactions)
	f.Rebalance()
	return f
}

func buildSales(leads []*domain.Lead, deals []*domain.Deal, meetings []*domain.Meeting) domain.SalesAggregate {
	s := domain.SalesAggregate{
		Leads:    domain.LeadList{Recent: make([]domain.Lead, 0, len(leads))},
		Deals:    domain.DealList{Recent: make([]domain.Deal, 0, len(deals))},
		Meetings: domain.MeetingList{Upcoming: make([]domain.Meeting, 0, len(meetings))},
	}
	for _, l := range leads {
		s.Leads.Recent = append(s.Leads.Recent, *l)
	}
	for _, d := range deals {
		s.Deals.Recent = append(s.Deals.Recent, *d)
		s.TotalRevenue = s.TotalRevenue.Add(d.Value)
	}
	for _, m := range meetings {
		s.Meetings.Upcoming = append(s.Meetings.Upcoming, *m)
	}
	s.Leads.Count = len(s.Leads.Recent)
	s.Deals.Count = len(s.Deals.Recent)
	s.Meetings.Count = len(s.Meetings.Upcoming)
	s.Leads.Trend = initialCountTrend(s.Leads.Count)
	s.Deals.Trend = initialCountTrend(s.Deals.Count)
	s.Meetings.Trend = initialCountTrend(s.Meetings.Count)
	return s
}

func buildProduct(projects []*domain.Project) domain.ProductAggregate {
	p := domain.ProductAggregate{Projects: make([]domain.Project, 0, len(projects))}
	for _, project := range projects {
		p.Projects = append(p.Projects, *project)
	}
	p.Recount()
	return p
}

// moneyTrend is the relative change between the two most recent amounts
func moneyTrend(transactions []domain.Transaction) float64 {
	if len(transactions) < 2 || transactions[1].Amount.IsZero() {
		return 0
	}
	trend, _ := transactions[0].Amount.Sub(transactions[1].Amount).
		Div(transactions[1].Amount).
		Float64()
	return trend
}

// countTrend is the relative change of a count; zero when there was nothing before
func countTrend(prev, next int) float64 {
	if prev <= 0 {
		return 0
	}
	return float64(next-prev) / float64(prev)
}

func initialCountTrend(count int) float64 {
	return countTrend(count-1, count)
}

// validateName trims a required text field and checks its length
func validateName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.NewValidationError(field, "is required")
	}
	if len(value) > domain.MaxNameLength {
		return "", domain.NewValidationError(field, "is too long")
	}
	return value, nil
}

func validatePositive(field string, value decimal.Decimal) error {
	if !value.IsPositive() {
		return domain.NewValidationError(field, "must be greater than zero")
	}
	return nil
}

func validateDirection(direction domain.Direction) error {
	if !direction.Valid() {
		return domain.NewValidationError("direction", "must be in or out")
	}
	return nil
}
