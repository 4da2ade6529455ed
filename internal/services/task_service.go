package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
)

// TaskService handles task business logic
type TaskService struct {
	store *repository.Store
	audit recorder
	now   func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(store *repository.Store, audit *AuditService) *TaskService {
	return &TaskService{
		store: store,
		audit: recorder{now: audit.now},
		now:   audit.now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID     *uint64
	AssigneeID    *uint64
	Status        *models.TaskStatus
	DueToday      bool
	SortByDueDate bool
	Page          repository.Page
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   uint64
	AssigneeID  *uint64
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskInput represents input for updating a task. Status changes go
// through the same workflow rules as Transition.
type UpdateTaskInput struct {
	Version       uint64
	Title         *string
	Description   *string
	ProjectID     *uint64
	AssigneeID    *uint64
	ClearAssignee bool
	Priority      *models.TaskPriority
	Status        *models.TaskStatus
	DueDate       *time.Time
	ClearDueDate  bool
}

// TransitionTaskInput represents a workflow step
type TransitionTaskInput struct {
	Version uint64
	Status  models.TaskStatus
}

// ListTasks returns tasks matching the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, invalid("status", fmt.Sprintf("unknown task status %q", *input.Status))
	}

	filter := repository.TaskFilter{
		ProjectID:     input.ProjectID,
		AssigneeID:    input.AssigneeID,
		Status:        input.Status,
		SortByDueDate: input.SortByDueDate,
		Page:          input.Page,
	}
	if input.DueToday {
		now := s.now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.store.Tasks.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.store.Tasks.FindByID(taskID, "Project", "Assignee")
	if err != nil {
		return nil, storeErr("task", "find", err)
	}

	return task, nil
}

// openProject loads a project that can still accept tasks
func openProject(tx *repository.Store, projectID uint64) (*models.Project, error) {
	if projectID == 0 {
		return nil, invalid("projectId", "is required")
	}
	project, err := tx.Projects.FindByID(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("projectId", "project does not exist")
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if project.Status.Terminal() {
		return nil, invalid("projectId", fmt.Sprintf("project is %s", project.Status))
	}
	return project, nil
}

// warnLateDueDate logs due dates beyond the project end. They are allowed.
func warnLateDueDate(task *models.Task, project *models.Project) {
	if task.DueDate != nil && task.DueDate.After(project.EndDate) {
		log.Printf("task %d due %s after project %d ends %s",
			task.ID, task.DueDate.Format(time.RFC3339), project.ID, project.EndDate.Format(time.RFC3339))
	}
}

// CreateTask creates a new pending task
func (s *TaskService) CreateTask(actor Actor, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, invalid("priority", fmt.Sprintf("unknown priority %q", input.Priority))
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		ProjectID:   input.ProjectID,
		AssigneeID:  input.AssigneeID,
		Priority:    input.Priority,
		Status:      models.TaskStatusPending,
		DueDate:     input.DueDate,
		Version:     1,
	}

	err := s.store.Transaction(func(tx *repository.Store) error {
		project, err := openProject(tx, task.ProjectID)
		if err != nil {
			return err
		}
		if task.AssigneeID != nil {
			if err := ensureActiveUser(tx, "assigneeId", *task.AssigneeID); err != nil {
				return err
			}
		}
		if err := tx.Tasks.Create(task); err != nil {
			return storeErr("task", "create", err)
		}
		warnLateDueDate(task, project)
		return s.audit.record(tx, actor, models.EntityTask, task.ID, models.AuditActionCreate, nil, task)
	})
	if err != nil {
		return nil, txErr("task", "create", err)
	}

	return task, nil
}

// ownedTask loads a task and checks that the actor is its assignee or the
// manager of its project
func ownedTask(tx *repository.Store, actor Actor, taskID uint64) (*models.Task, *models.Project, error) {
	task, err := tx.Tasks.FindByID(taskID)
	if err != nil {
		return nil, nil, storeErr("task", "find", err)
	}
	project, err := tx.Projects.FindByID(task.ProjectID)
	if err != nil {
		return nil, nil, storeErr("project", "find", err)
	}

	owners := []uint64{project.ManagerID}
	if task.AssigneeID != nil {
		owners = append(owners, *task.AssigneeID)
	}
	if err := actor.requireOwnership(owners...); err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

func applyTransition(task *models.Task, next models.TaskStatus) error {
	if !next.Valid() {
		return invalid("status", fmt.Sprintf("unknown task status %q", next))
	}
	if next == task.Status {
		return invalid("status", fmt.Sprintf("task is already %s", next))
	}
	if !task.Status.CanTransitionTo(next) {
		return invalid("status", fmt.Sprintf("cannot move a task from %s to %s", task.Status, next))
	}
	task.Status = next
	return nil
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(actor Actor, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}

	var task *models.Task
	err := s.store.Transaction(func(tx *repository.Store) error {
		var (
			project *models.Project
			err     error
		)
		task, project, err = ownedTask(tx, actor, taskID)
		if err != nil {
			return err
		}
		before := *task

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return invalid("title", "cannot be empty")
			}
			task.Title = title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
			project, err = openProject(tx, *input.ProjectID)
			if err != nil {
				return err
			}
			task.ProjectID = project.ID
		}
		if input.ClearAssignee {
			task.AssigneeID = nil
		} else if input.AssigneeID != nil {
			if err := ensureActiveUser(tx, "assigneeId", *input.AssigneeID); err != nil {
				return err
			}
			task.AssigneeID = input.AssigneeID
		}
		if input.Priority != nil {
			if !input.Priority.Valid() {
				return invalid("priority", fmt.Sprintf("unknown priority %q", *input.Priority))
			}
			task.Priority = *input.Priority
		}
		if input.Status != nil && *input.Status != task.Status {
			if err := applyTransition(task, *input.Status); err != nil {
				return err
			}
		}
		if input.ClearDueDate {
			task.DueDate = nil
		} else if input.DueDate != nil {
			task.DueDate = input.DueDate
		}

		task.Version = input.Version
		if err := tx.Tasks.Update(task); err != nil {
			return storeErr("task", "update", err)
		}
		warnLateDueDate(task, project)
		return s.audit.record(tx, actor, models.EntityTask, task.ID, models.AuditActionUpdate, before, task)
	})
	if err != nil {
		return nil, txErr("task", "update", err)
	}

	return task, nil
}

// TransitionTask moves a task one step along its workflow
func (s *TaskService) TransitionTask(actor Actor, taskID uint64, input TransitionTaskInput) (*models.Task, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}

	var task *models.Task
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		task, _, err = ownedTask(tx, actor, taskID)
		if err != nil {
			return err
		}
		before := *task

		if err := applyTransition(task, input.Status); err != nil {
			return err
		}

		task.Version = input.Version
		if err := tx.Tasks.Update(task); err != nil {
			return storeErr("task", "update", err)
		}
		return s.audit.record(tx, actor, models.EntityTask, task.ID, models.AuditActionUpdate, before, task)
	})
	if err != nil {
		return nil, txErr("task", "transition", err)
	}

	return task, nil
}

// DeleteTask deletes a task with its comments and attachments
func (s *TaskService) DeleteTask(actor Actor, taskID, version uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		task, _, err := ownedTask(tx, actor, taskID)
		if err != nil {
			return err
		}

		before := *task
		if version != 0 {
			task.Version = version
		}
		if err := tx.Tasks.Delete(task); err != nil {
			return storeErr("task", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityTask, task.ID, models.AuditActionDelete, before, nil)
	})
	return txErr("task", "delete", err)
}
