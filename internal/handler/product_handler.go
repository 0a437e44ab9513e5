package handler

import (
	"net/http"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ProductHandler handles projects and their task boards
type ProductHandler struct{}

// NewProductHandler creates a new ProductHandler
func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// CreateProjectRequest represents the create project request body
type CreateProjectRequest struct {
	Name    string   `json:"name"`
	Client  string   `json:"client"`
	Modules []string `json:"modules"`
	Status  string   `json:"status"`
}

// ProjectStatusRequest represents a project status change
type ProjectStatusRequest struct {
	Status string `json:"status"`
}

// TaskRequest is the body for creating or editing a task
type TaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// TaskListResponse is the task board of an open project
type TaskListResponse struct {
	ProjectID int32         `json:"projectId"`
	Tasks     []domain.Task `json:"tasks"`
}

// CreateProject handles POST /api/v1/projects
func (h *ProductHandler) CreateProject(c echo.Context, state *service.DashboardState) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	modules := make([]domain.Module, 0, len(req.Modules))
	for _, m := range req.Modules {
		modules = append(modules, domain.Module(m))
	}

	created, err := state.AddProject(c.Request().Context(), domain.NewProject{
		Name:    req.Name,
		Client:  req.Client,
		Modules: modules,
		Status:  domain.ProjectStatus(req.Status),
	})
	if err != nil {
		return serviceError(c, err, "Failed to create project")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateProjectStatus handles PATCH /api/v1/projects/:id/status
func (h *ProductHandler) UpdateProjectStatus(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	var req ProjectStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := state.UpdateProjectStatus(c.Request().Context(), id, domain.ProjectStatus(req.Status))
	if err != nil {
		return serviceError(c, err, "Failed to update project")
	}
	return c.JSON(http.StatusOK, updated)
}

// OpenProject handles GET /api/v1/projects/:id/tasks. The tasks stay cached
// in the session until the project is closed.
func (h *ProductHandler) OpenProject(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}

	tasks, err := state.OpenProject(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to load tasks")
	}
	return c.JSON(http.StatusOK, TaskListResponse{ProjectID: id, Tasks: tasks})
}

// CloseProject handles DELETE /api/v1/projects/:id/tasks/cache
func (h *ProductHandler) CloseProject(c echo.Context, state *service.DashboardState) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	state.CloseProject(id)
	return c.NoContent(http.StatusNoContent)
}

// CreateTask handles POST /api/v1/projects/:id/tasks
func (h *ProductHandler) CreateTask(c echo.Context, state *service.DashboardState) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	created, err := state.AddTask(c.Request().Context(), projectID, domain.NewTask{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Status:      domain.TaskStatus(deref(req.Status)),
	})
	if err != nil {
		return serviceError(c, err, "Failed to create task")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateTask handles PUT /api/v1/projects/:id/tasks/:taskId
func (h *ProductHandler) UpdateTask(c echo.Context, state *service.DashboardState) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return invalidField(c, "taskId", "Must be a positive integer")
	}
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	patch := domain.TaskPatch{Title: req.Title, Description: req.Description}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}

	updated, err := state.UpdateTask(c.Request().Context(), projectID, taskID, patch)
	if err != nil {
		return serviceError(c, err, "Failed to update task")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteTask handles DELETE /api/v1/projects/:id/tasks/:taskId
func (h *ProductHandler) DeleteTask(c echo.Context, state *service.DashboardState) error {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidField(c, "id", "Must be a positive integer")
	}
	taskID, ok := parseIDParam(c, "taskId")
	if !ok {
		return invalidField(c, "taskId", "Must be a positive integer")
	}

	if err := state.RemoveTask(c.Request().Context(), projectID, taskID); err != nil {
		return serviceError(c, err, "Failed to delete task")
	}
	return c.NoContent(http.StatusNoContent)
}
