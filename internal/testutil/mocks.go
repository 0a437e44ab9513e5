package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	CreateFn func(auth0ID, email string, name *string) (*domain.User, error)
	mu       sync.Mutex
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*domain.User)}
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   email,
		Name:    name,
	}
	m.Users[auth0ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.Auth0ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	ByUserID      map[uuid.UUID]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
	CreateFn      func(workspace *domain.Workspace) (*domain.Workspace, error)
	mu            sync.Mutex
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		ByUserID:      make(map[uuid.UUID]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

// GetByUserID retrieves a workspace by user ID
func (m *MockWorkspaceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.ByUserID[userID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserAuth0ID retrieves a workspace by user's Auth0 ID
func (m *MockWorkspaceRepository) GetByUserAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	if m.CreateFn != nil {
		return m.CreateFn(workspace)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *workspace
	created.ID = m.NextID
	m.NextID++
	m.ByUserID[created.UserID] = &created
	return &created, nil
}

// AddWorkspace registers a workspace for both lookups (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(auth0ID string, workspace *domain.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ByUserID[workspace.UserID] = workspace
	m.ByUserAuth0ID[auth0ID] = workspace
}

// MockTransactionRepository is an in-memory domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
	CreateFn     func(transaction *domain.Transaction) (*domain.Transaction, error)
	UpdateFn     func(transaction *domain.Transaction) (*domain.Transaction, error)
	DeleteFn     func(workspaceID, id int32) error
	ListFn       func(workspaceID int32) ([]*domain.Transaction, error)
	mu           sync.Mutex
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Create stores a copy of the transaction with the next id
func (m *MockTransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *transaction
	created.ID = m.NextID
	m.NextID++
	if created.Date.IsZero() {
		created.Date = time.Now().UTC()
	}
	created.CreatedAt = created.Date
	m.Transactions[created.ID] = &created
	out := created
	return &out, nil
}

// Update replaces a stored transaction
func (m *MockTransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Transactions[transaction.ID]
	if !ok || existing.WorkspaceID != transaction.WorkspaceID {
		return nil, domain.ErrNotFound
	}
	updated := *transaction
	updated.Direction = existing.Direction
	updated.CreatedAt = updated.Date
	m.Transactions[updated.ID] = &updated
	out := updated
	return &out, nil
}

// Delete removes a stored transaction
func (m *MockTransactionRepository) Delete(ctx context.Context, workspaceID, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Transactions[id]
	if !ok || existing.WorkspaceID != workspaceID {
		return domain.ErrNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// ListByWorkspace returns transactions newest first
func (m *MockTransactionRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Transaction, error) {
	if m.ListFn != nil {
		return m.ListFn(workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.WorkspaceID == workspaceID {
			c := *t
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Get returns a copy of a stored transaction (helper for tests)
func (m *MockTransactionRepository) Get(id int32) (domain.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transactions[id]
	if !ok {
		return domain.Transaction{}, false
	}
	return *t, true
}

// Count returns the number of stored transactions (helper for tests)
func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transactions)
}

// MockLeadRepository is an in-memory domain.LeadRepository
type MockLeadRepository struct {
	Leads    map[int32]*domain.Lead
	NextID   int32
	CreateFn func(lead *domain.Lead) (*domain.Lead, error)
	UpdateFn func(lead *domain.Lead) (*domain.Lead, error)
	DeleteFn func(workspaceID, id int32) error
	ListFn   func(workspaceID int32) ([]*domain.Lead, error)
	mu       sync.Mutex
}

// NewMockLeadRepository creates a new MockLeadRepository
func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{Leads: make(map[int32]*domain.Lead), NextID: 1}
}

// Create stores a copy of the lead with the next id
func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if m.CreateFn != nil {
		return m.CreateFn(lead)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *lead
	created.ID = m.NextID
	m.NextID++
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	m.Leads[created.ID] = &created
	out := created
	return &out, nil
}

// Update replaces a stored lead
func (m *MockLeadRepository) Update(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(lead)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Leads[lead.ID]; !ok || existing.WorkspaceID != lead.WorkspaceID {
		return nil, domain.ErrNotFound
	}
	updated := *lead
	m.Leads[updated.ID] = &updated
	out := updated
	return &out, nil
}

// Delete removes a stored lead
func (m *MockLeadRepository) Delete(ctx context.Context, workspaceID, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Leads[id]; !ok || existing.WorkspaceID != workspaceID {
		return domain.ErrNotFound
	}
	delete(m.Leads, id)
	return nil
}

// ListByWorkspace returns leads newest first
func (m *MockLeadRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Lead, error) {
	if m.ListFn != nil {
		return m.ListFn(workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Lead, 0)
	for _, l := range m.Leads {
		if l.WorkspaceID == workspaceID {
			c := *l
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Count returns the number of stored leads (helper for tests)
func (m *MockLeadRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Leads)
}

// MockDealRepository is an in-memory domain.DealRepository
type MockDealRepository struct {
	Deals    map[int32]*domain.Deal
	NextID   int32
	CreateFn func(deal *domain.Deal) (*domain.Deal, error)
	UpdateFn func(deal *domain.Deal) (*domain.Deal, error)
	DeleteFn func(workspaceID, id int32) error
	ListFn   func(workspaceID int32) ([]*domain.Deal, error)
	mu       sync.Mutex
}

// NewMockDealRepository creates a new MockDealRepository
func NewMockDealRepository() *MockDealRepository {
	return &MockDealRepository{Deals: make(map[int32]*domain.Deal), NextID: 1}
}

// Create stores a copy of the deal with the next id
func (m *MockDealRepository) Create(ctx context.Context, deal *domain.Deal) (*domain.Deal, error) {
	if m.CreateFn != nil {
		return m.CreateFn(deal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *deal
	created.ID = m.NextID
	m.NextID++
	if created.Date.IsZero() {
		created.Date = time.Now().UTC()
	}
	m.Deals[created.ID] = &created
	out := created
	return &out, nil
}

// Update replaces a stored deal
func (m *MockDealRepository) Update(ctx context.Context, deal *domain.Deal) (*domain.Deal, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(deal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Deals[deal.ID]; !ok || existing.WorkspaceID != deal.WorkspaceID {
		return nil, domain.ErrNotFound
	}
	updated := *deal
	m.Deals[updated.ID] = &updated
	out := updated
	return &out, nil
}

// Delete removes a stored deal
func (m *MockDealRepository) Delete(ctx context.Context, workspaceID, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Deals[id]; !ok || existing.WorkspaceID != workspaceID {
		return domain.ErrNotFound
	}
	delete(m.Deals, id)
	return nil
}

// ListByWorkspace returns deals newest first
func (m *MockDealRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Deal, error) {
	if m.ListFn != nil {
		return m.ListFn(workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Deal, 0)
	for _, d := range m.Deals {
		if d.WorkspaceID == workspaceID {
			c := *d
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Count returns the number of stored deals (helper for tests)
func (m *MockDealRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deals)
}

// MockMeetingRepository is an in-memory domain.MeetingRepository
type MockMeetingRepository struct {
	Meetings map[int32]*domain.Meeting
	NextID   int32
	CreateFn func(meeting *domain.Meeting) (*domain.Meeting, error)
	DeleteFn func(workspaceID, id int32) error
	mu       sync.Mutex
}

// NewMockMeetingRepository creates a new MockMeetingRepository
func NewMockMeetingRepository() *MockMeetingRepository {
	return &MockMeetingRepository{Meetings: make(map[int32]*domain.Meeting), NextID: 1}
}

// Create stores a copy of the meeting with the next id
func (m *MockMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	if m.CreateFn != nil {
		return m.CreateFn(meeting)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *meeting
	created.ID = m.NextID
	m.NextID++
	m.Meetings[created.ID] = &created
	out := created
	return &out, nil
}

// Update replaces a stored meeting
func (m *MockMeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Meetings[meeting.ID]; !ok || existing.WorkspaceID != meeting.WorkspaceID {
		return nil, domain.ErrNotFound
	}
	updated := *meeting
	m.Meetings[updated.ID] = &updated
	out := updated
	return &out, nil
}

// Delete removes a stored meeting
func (m *MockMeetingRepository) Delete(ctx context.Context, workspaceID, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Meetings[id]; !ok || existing.WorkspaceID != workspaceID {
		return domain.ErrNotFound
	}
	delete(m.Meetings, id)
	return nil
}

// ListByWorkspace returns meetings by ascending scheduled time
func (m *MockMeetingRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Meeting, 0)
	for _, mt := range m.Meetings {
		if mt.WorkspaceID == workspaceID {
			c := *mt
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ScheduledTime.Equal(result[j].ScheduledTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].ScheduledTime.Before(result[j].ScheduledTime)
	})
	return result, nil
}

// MockProjectRepository is an in-memory domain.ProjectRepository
type MockProjectRepository struct {
	Projects       map[int32]*domain.Project
	NextID         int32
	CreateFn       func(project *domain.Project) (*domain.Project, error)
	UpdateStatusFn func(workspaceID, id int32, status domain.ProjectStatus) (*domain.Project, error)
	DeleteFn       func(workspaceID, id int32) error
	mu             sync.Mutex
}

// NewMockProjectRepository creates a new MockProjectRepository
func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{Projects: make(map[int32]*domain.Project), NextID: 1}
}

// Create stores a copy of the project with the next id
func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if m.CreateFn != nil {
		return m.CreateFn(project)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *project
	created.ID = m.NextID
	m.NextID++
	created.Modules = append([]domain.Module(nil), project.Modules...)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	m.Projects[created.ID] = &created
	out := created
	return &out, nil
}

// UpdateStatus changes the status of a stored project
func (m *MockProjectRepository) UpdateStatus(ctx context.Context, workspaceID, id int32, status domain.ProjectStatus) (*domain.Project, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(workspaceID, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Projects[id]
	if !ok || existing.WorkspaceID != workspaceID {
		return nil, domain.ErrNotFound
	}
	existing.Status = status
	out := *existing
	return &out, nil
}

// Delete removes a stored project
func (m *MockProjectRepository) Delete(ctx context.Context, workspaceID, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Projects[id]; !ok || existing.WorkspaceID != workspaceID {
		return domain.ErrNotFound
	}
	delete(m.Projects, id)
	return nil
}

// ListByWorkspace returns projects in creation order
func (m *MockProjectRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Project, 0)
	for _, p := range m.Projects {
		if p.WorkspaceID == workspaceID {
			c := *p
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Count returns the number of stored projects (helper for tests)
func (m *MockProjectRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Projects)
}

// MockTaskRepository is an in-memory domain.TaskRepository
type MockTaskRepository struct {
	Tasks    map[int32]*domain.Task
	NextID   int32
	CreateFn func(task *domain.Task) (*domain.Task, error)
	ListFn   func(projectID int32) ([]*domain.Task, error)
	mu       sync.Mutex
}

// NewMockTaskRepository creates a new MockTaskRepository
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{Tasks: make(map[int32]*domain.Task), NextID: 1}
}

// ListByProject returns the tasks of a project newest first
func (m *MockTaskRepository) ListByProject(ctx context.Context, projectID int32) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(projectID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Task, 0)
	for _, t := range m.Tasks {
		if t.ProjectID == projectID {
			c := *t
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Create stores a copy of the task with the next id
func (m *MockTaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *task
	created.ID = m.NextID
	m.NextID++
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	m.Tasks[created.ID] = &created
	out := created
	return &out, nil
}

// Update replaces a stored task
func (m *MockTaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Tasks[task.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	updated := *task
	updated.UpdatedAt = time.Now().UTC()
	m.Tasks[updated.ID] = &updated
	out := updated
	return &out, nil
}

// Delete removes a stored task
func (m *MockTaskRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// MockChatTranscriptRepository is an in-memory domain.ChatTranscriptRepository
type MockChatTranscriptRepository struct {
	Transcripts map[int32][]domain.ChatMessage
	SaveFn      func(workspaceID int32, messages []domain.ChatMessage) error
	mu          sync.Mutex
}

// NewMockChatTranscriptRepository creates a new MockChatTranscriptRepository
func NewMockChatTranscriptRepository() *MockChatTranscriptRepository {
	return &MockChatTranscriptRepository{Transcripts: make(map[int32][]domain.ChatMessage)}
}

// Load returns a copy of the stored transcript
func (m *MockChatTranscriptRepository) Load(ctx context.Context, workspaceID int32) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChatMessage{}, m.Transcripts[workspaceID]...), nil
}

// Save replaces the stored transcript
func (m *MockChatTranscriptRepository) Save(ctx context.Context, workspaceID int32, messages []domain.ChatMessage) error {
	if m.SaveFn != nil {
		return m.SaveFn(workspaceID, messages)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transcripts[workspaceID] = append([]domain.ChatMessage{}, messages...)
	return nil
}

// Clear removes the stored transcript
func (m *MockChatTranscriptRepository) Clear(ctx context.Context, workspaceID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Transcripts, workspaceID)
	return nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []PublishedEvent
	mu     sync.Mutex
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(workspaceID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// Types returns the recorded event types in publish order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}

// HasType reports whether an event of the given type was published
func (m *MockEventPublisher) HasType(eventType string) bool {
	for _, t := range m.Types() {
		if strings.EqualFold(t, eventType) {
			return true
		}
	}
	return false
}
