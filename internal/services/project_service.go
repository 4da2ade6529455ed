package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
)

// ProjectService handles project business logic
type ProjectService struct {
	store *repository.Store
	audit recorder
}

// NewProjectService creates a new ProjectService
func NewProjectService(store *repository.Store, audit *AuditService) *ProjectService {
	return &ProjectService{store: store, audit: recorder{now: audit.now}}
}

// CreateProjectInput represents input for creating a project. A zero
// ManagerID makes the actor the manager.
type CreateProjectInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	ClientID    uint64
	ManagerID   uint64
	Status      models.ProjectStatus
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	Version     uint64
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClientID    *uint64
	ManagerID   *uint64
	Status      *models.ProjectStatus
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	ClientID  *uint64
	ManagerID *uint64
	Status    *models.ProjectStatus
	Page      repository.Page
}

func validateProjectDates(start, end time.Time) error {
	if start.IsZero() {
		return invalid("startDate", "is required")
	}
	if end.IsZero() {
		return invalid("endDate", "is required")
	}
	if end.Before(start) {
		return invalid("endDate", "must not be before startDate")
	}
	return nil
}

func ensureClientExists(tx *repository.Store, clientID uint64) error {
	if clientID == 0 {
		return invalid("clientId", "is required")
	}
	if _, err := tx.Clients.FindByID(clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("clientId", "client does not exist")
		}
		return fmt.Errorf("failed to find client: %w", err)
	}
	return nil
}

// ensureActiveUser checks that userID names an existing, active user.
func ensureActiveUser(tx *repository.Store, field string, userID uint64) error {
	user, err := tx.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid(field, "user does not exist")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return invalid(field, "user is inactive")
	}
	return nil
}

func (s *ProjectService) Create(actor Actor, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if err := validateProjectDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusPlanned
	}
	if !input.Status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown project status %q", input.Status))
	}
	if input.ManagerID == 0 {
		input.ManagerID = actor.UserID
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
		ClientID:    input.ClientID,
		ManagerID:   input.ManagerID,
		Status:      input.Status,
		Version:     1,
	}
	err := s.store.Transaction(func(tx *repository.Store) error {
		if err := ensureClientExists(tx, project.ClientID); err != nil {
			return err
		}
		if err := ensureActiveUser(tx, "managerId", project.ManagerID); err != nil {
			return err
		}
		if err := tx.Projects.Create(project); err != nil {
			return storeErr("project", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityProject, project.ID, models.AuditActionCreate, nil, project)
	})
	if err != nil {
		return nil, txErr("project", "create", err)
	}
	return project, nil
}

// Get returns a project with its client and manager
func (s *ProjectService) Get(id uint64) (*models.Project, error) {
	project, err := s.store.Projects.FindByID(id, "Client", "Manager")
	if err != nil {
		return nil, storeErr("project", "find", err)
	}
	return project, nil
}

func (s *ProjectService) List(input ListProjectsInput) ([]models.Project, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, invalid("status", fmt.Sprintf("unknown project status %q", *input.Status))
	}
	projects, total, err := s.store.Projects.List(repository.ProjectFilter{
		ClientID:  input.ClientID,
		ManagerID: input.ManagerID,
		Status:    input.Status,
		Page:      input.Page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// Update applies changes to a project the actor manages or may manage
func (s *ProjectService) Update(actor Actor, id uint64, input UpdateProjectInput) (*models.Project, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}

	var project *models.Project
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		project, err = tx.Projects.FindByID(id)
		if err != nil {
			return storeErr("project", "find", err)
		}
		if err := actor.requireOwnership(project.ManagerID); err != nil {
			return err
		}
		before := *project

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return invalid("name", "cannot be empty")
			}
			project.Name = name
		}
		if input.Description != nil {
			project.Description = *input.Description
		}
		if input.StartDate != nil {
			project.StartDate = input.StartDate.UTC()
		}
		if input.EndDate != nil {
			project.EndDate = input.EndDate.UTC()
		}
		if err := validateProjectDates(project.StartDate, project.EndDate); err != nil {
			return err
		}
		if input.ClientID != nil && *input.ClientID != project.ClientID {
			if err := ensureClientExists(tx, *input.ClientID); err != nil {
				return err
			}
			project.ClientID = *input.ClientID
		}
		if input.ManagerID != nil && *input.ManagerID != project.ManagerID {
			if err := ensureActiveUser(tx, "managerId", *input.ManagerID); err != nil {
				return err
			}
			project.ManagerID = *input.ManagerID
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return invalid("status", fmt.Sprintf("unknown project status %q", *input.Status))
			}
			project.Status = *input.Status
		}

		project.Version = input.Version
		if err := tx.Projects.Update(project); err != nil {
			return storeErr("project", "update", err)
		}
		return s.audit.record(tx, actor, models.EntityProject, project.ID, models.AuditActionUpdate, before, project)
	})
	if err != nil {
		return nil, txErr("project", "update", err)
	}
	return project, nil
}

// Delete removes a project that has no tasks
func (s *ProjectService) Delete(actor Actor, id, version uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		project, err := tx.Projects.FindByID(id)
		if err != nil {
			return storeErr("project", "find", err)
		}
		if err := actor.requireOwnership(project.ManagerID); err != nil {
			return err
		}
		tasks, err := tx.Tasks.CountByProject(project.ID)
		if err != nil {
			return fmt.Errorf("failed to count project tasks: %w", err)
		}
		if tasks > 0 {
			return invalid("id", fmt.Sprintf("project still has %d task(s)", tasks))
		}

		before := *project
		if version != 0 {
			project.Version = version
		}
		if err := tx.Projects.Delete(project); err != nil {
			return storeErr("project", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityProject, project.ID, models.AuditActionDelete, before, nil)
	})
	return txErr("project", "delete", err)
}
