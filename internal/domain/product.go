package domain

import (
	"context"
	"time"
)

// Module is a product component a project can include
type Module string

const (
	ModuleSales           Module = "sales"
	ModuleCustomerService Module = "customer-service"
	ModuleData            Module = "data"
	ModuleOperation       Module = "operation"
)

// componentIDs maps modules to their project_components ids
var componentIDs = map[Module]int32{
	ModuleSales:           1,
	ModuleCustomerService: 2,
	ModuleData:            3,
	ModuleOperation:       4,
}

// ComponentID returns the stored component id of m
func (m Module) ComponentID() (int32, bool) {
	id, ok := componentIDs[m]
	return id, ok
}

// ModuleFromComponentID maps a stored component id back to a module.
// Unknown ids fall back to operation.
func ModuleFromComponentID(id int32) Module {
	for m, cid := range componentIDs {
		if cid == id {
			return m
		}
	}
	return ModuleOperation
}

// DealProjectModules are the modules of a project created from a won deal
var DealProjectModules = []Module{ModuleSales, ModuleCustomerService}

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusProposal ProjectStatus = "proposal"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusActive || s == ProjectStatusProposal
}

type Project struct {
	ID          int32         `json:"id"`
	WorkspaceID int32         `json:"workspaceId"`
	Name        string        `json:"name"`
	Client      string        `json:"client"`
	Modules     []Module      `json:"modules"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// TaskStatus is the kanban column of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status
func (s TaskStatus) Valid() bool {
	return s == TaskStatusTodo || s == TaskStatusInProgress || s == TaskStatusDone
}

type Task struct {
	ID          int32      `json:"id"`
	ProjectID   int32      `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskPatch holds the optional fields of a task edit
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// Apply returns a copy of t with the patch applied
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

// NewProject holds the caller-supplied fields of a project
type NewProject struct {
	Name    string        `json:"name"`
	Client  string        `json:"client"`
	Modules []Module      `json:"modules"`
	Status  ProjectStatus `json:"status"`
}

// NewTask holds the caller-supplied fields of a task
type NewTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
}

type ProjectMetrics struct {
	ActiveProjects int `json:"activeProjects"`
	Proposals      int `json:"proposals"`
}

// ProductAggregate holds projects in creation order and their status counts
type ProductAggregate struct {
	Projects []Project      `json:"projects"`
	Metrics  ProjectMetrics `json:"metrics"`
}

// Clone returns a deep copy of the aggregate
func (p ProductAggregate) Clone() ProductAggregate {
	projects := make([]Project, len(p.Projects))
	for i, project := range p.Projects {
		project.Modules = cloneSlice(project.Modules)
		projects[i] = project
	}
	p.Projects = projects
	return p
}

// FindProject returns the position of a project by id, or -1
func (p *ProductAggregate) FindProject(id int32) int {
	for i := range p.Projects {
		if p.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Recount derives the metrics from the project list
func (p *ProductAggregate) Recount() {
	p.Metrics = ProjectMetrics{}
	for _, project := range p.Projects {
		switch project.Status {
		case ProjectStatusActive:
			p.Metrics.ActiveProjects++
		case ProjectStatusProposal:
			p.Metrics.Proposals++
		}
	}
}

type ProjectRepository interface {
	// Create inserts the project and its components together
	Create(ctx context.Context, project *Project) (*Project, error)
	UpdateStatus(ctx context.Context, workspaceID int32, id int32, status ProjectStatus) (*Project, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	ListByWorkspace(ctx context.Context, workspaceID int32) ([]*Project, error)
}

type TaskRepository interface {
	ListByProject(ctx context.Context, projectID int32) ([]*Task, error)
	Create(ctx context.Context, task *Task) (*Task, error)
	Update(ctx context.Context, task *Task) (*Task, error)
	Delete(ctx context.Context, id int32) error
}
