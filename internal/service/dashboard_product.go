package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
)

// AddProject inserts a project with its modules and bumps the matching metric
func (s *DashboardState) AddProject(ctx context.Context, input domain.NewProject) (*domain.Project, error) {
	var created *domain.Project
	err := s.run("add_project", func() error {
		name, err := validateName("name", input.Name)
		if err != nil {
			return err
		}
		client, err := validateName("client", input.Client)
		if err != nil {
			return err
		}
		modules, err := normalizeModules(input.Modules)
		if err != nil {
			return err
		}
		status := input.Status
		if status == "" {
			status = domain.ProjectStatusProposal
		}
		if !status.Valid() {
			return domain.NewValidationError("status", "must be active or proposal")
		}

		row, err := s.repos.Projects.Create(ctx, &domain.Project{
			WorkspaceID: s.workspaceID,
			Name:        name,
			Client:      client,
			Modules:     modules,
			Status:      status,
		})
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("insert project", err)
		}

		s.mu.Lock()
		s.product.Projects = append(s.product.Projects, *row)
		s.product.Recount()
		s.mu.Unlock()

		created = row
		s.publishEvent(websocket.Created(websocket.EntityTypeProject, row))
		return nil
	})
	return created, err
}

// UpdateProjectStatus moves a project between active and proposal
func (s *DashboardState) UpdateProjectStatus(ctx context.Context, id int32, status domain.ProjectStatus) (*domain.Project, error) {
	var updated *domain.Project
	err := s.run("update_project_status", func() error {
		if !status.Valid() {
			return domain.NewValidationError("status", "must be active or proposal")
		}
		if !s.hasProject(id) {
			return domain.NewNotFoundError("project", id)
		}

		row, err := s.repos.Projects.UpdateStatus(ctx, s.workspaceID, id, status)
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("update project status", err)
		}

		s.mu.Lock()
		if i := s.product.FindProject(id); i >= 0 {
			s.product.Projects[i] = *row
		}
		s.product.Recount()
		s.mu.Unlock()

		updated = row
		s.publishEvent(websocket.Updated(websocket.EntityTypeProject, row))
		return nil
	})
	return updated, err
}

// OpenProject fetches a project's tasks and caches them until CloseProject
func (s *DashboardState) OpenProject(ctx context.Context, projectID int32) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.run("open_project", func() error {
		if !s.hasProject(projectID) {
			return domain.NewNotFoundError("project", projectID)
		}

		rows, err := s.repos.Tasks.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		loaded := make([]domain.Task, 0, len(rows))
		for _, t := range rows {
			loaded = append(loaded, *t)
		}

		s.mu.Lock()
		s.tasks[projectID] = loaded
		s.mu.Unlock()

		tasks = append([]domain.Task{}, loaded...)
		return nil
	})
	return tasks, err
}

// CloseProject drops the cached tasks of a project
func (s *DashboardState) CloseProject(projectID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, projectID)
}

// Tasks returns the cached tasks of an open project
func (s *DashboardState) Tasks(projectID int32) ([]domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks, ok := s.tasks[projectID]
	if !ok {
		return nil, false
	}
	return append([]domain.Task{}, tasks...), true
}

// AddTask inserts a task into a project
func (s *DashboardState) AddTask(ctx context.Context, projectID int32, input domain.NewTask) (*domain.Task, error) {
	var created *domain.Task
	err := s.run("add_task", func() error {
		if !s.hasProject(projectID) {
			return domain.NewNotFoundError("project", projectID)
		}
		title, err := validateName("title", input.Title)
		if err != nil {
			return err
		}
		status := input.Status
		if status == "" {
			status = domain.TaskStatusTodo
		}
		if !status.Valid() {
			return domain.NewValidationError("status", "must be todo, in-progress or done")
		}

		row, err := s.repos.Tasks.Create(ctx, &domain.Task{
			ProjectID:   projectID,
			Title:       title,
			Description: strings.TrimSpace(input.Description),
			Status:      status,
		})
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("insert task", err)
		}

		s.mu.Lock()
		if cached, ok := s.tasks[projectID]; ok {
			s.tasks[projectID] = append([]domain.Task{*row}, cached...)
		}
		s.mu.Unlock()

		created = row
		s.publishEvent(websocket.Created(websocket.EntityTypeTask, row))
		return nil
	})
	return created, err
}

// UpdateTask applies a patch to a task of a project
func (s *DashboardState) UpdateTask(ctx context.Context, projectID, taskID int32, patch domain.TaskPatch) (*domain.Task, error) {
	var updated *domain.Task
	err := s.run("update_task", func() error {
		if !s.hasProject(projectID) {
			return domain.NewNotFoundError("project", projectID)
		}
		if err := trimPatchField("title", &patch.Title); err != nil {
			return err
		}
		if patch.Description != nil {
			d := strings.TrimSpace(*patch.Description)
			patch.Description = &d
		}
		if patch.Status != nil && !patch.Status.Valid() {
			return domain.NewValidationError("status", "must be todo, in-progress or done")
		}

		current, err := s.findTask(ctx, projectID, taskID)
		if err != nil {
			return err
		}

		next := patch.Apply(current)
		row, err := s.repos.Tasks.Update(ctx, &next)
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("update task", err)
		}

		s.mu.Lock()
		if cached, ok := s.tasks[projectID]; ok {
			for i := range cached {
				if cached[i].ID == taskID {
					cached[i] = *row
				}
			}
		}
		s.mu.Unlock()

		updated = row
		s.publishEvent(websocket.Updated(websocket.EntityTypeTask, row))
		return nil
	})
	return updated, err
}

// RemoveTask deletes a task. A task that does not exist is a no-op.
func (s *DashboardState) RemoveTask(ctx context.Context, projectID, taskID int32) error {
	return s.run("remove_task", func() error {
		if !s.hasProject(projectID) {
			return domain.NewNotFoundError("project", projectID)
		}

		removed, err := s.findTask(ctx, projectID, taskID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Int32("project_id", projectID).Int32("task_id", taskID).Msg("Task not found, nothing to remove")
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.repos.Tasks.Delete(ctx, taskID); err != nil {
			return domain.NewRemoteWriteError("delete task", err)
		}

		s.mu.Lock()
		if cached, ok := s.tasks[projectID]; ok {
			kept := make([]domain.Task, 0, len(cached))
			for _, t := range cached {
				if t.ID != taskID {
					kept = append(kept, t)
				}
			}
			s.tasks[projectID] = kept
		}
		s.mu.Unlock()

		s.publishEvent(websocket.Deleted(websocket.EntityTypeTask, removed))
		return nil
	})
}

func (s *DashboardState) hasProject(id int32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.product.FindProject(id) >= 0
}

// findTask looks a task up in the cache of an open project, or remotely otherwise
func (s *DashboardState) findTask(ctx context.Context, projectID, taskID int32) (domain.Task, error) {
	s.mu.RLock()
	cached, open := s.tasks[projectID]
	s.mu.RUnlock()

	if !open {
		rows, err := s.repos.Tasks.ListByProject(ctx, projectID)
		if err != nil {
			return domain.Task{}, fmt.Errorf("failed to load tasks: %w", err)
		}
		cached = make([]domain.Task, 0, len(rows))
		for _, t := range rows {
			cached = append(cached, *t)
		}
	}
	for _, t := range cached {
		if t.ID == taskID {
			return t, nil
		}
	}
	return domain.Task{}, domain.NewNotFoundError("task", taskID)
}

// normalizeModules rejects unknown modules and drops duplicates
func normalizeModules(modules []domain.Module) ([]domain.Module, error) {
	seen := make(map[domain.Module]bool, len(modules))
	out := make([]domain.Module, 0, len(modules))
	for _, m := range modules {
		m = domain.Module(strings.ToLower(strings.TrimSpace(string(m))))
		if _, ok := m.ComponentID(); !ok {
			return nil, domain.NewValidationError("modules", fmt.Sprintf("unknown module %q", m))
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}
