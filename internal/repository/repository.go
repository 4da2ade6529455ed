package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrVersionConflict is returned when a row exists but its version no longer
	// matches the version the caller read.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrDuplicate is returned when an insert or update violates a unique key.
	ErrDuplicate = errors.New("repository: duplicate key")
)

// Page selects a window of a list query. A zero Page disables pagination.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) enabled() bool {
	return p.Number > 0 && p.Size > 0
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	ActiveOnly bool
	RoleID     *uint64
	Page       Page
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	ClientID  *uint64
	ManagerID *uint64
	Status    *models.ProjectStatus
	Page      Page
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID     *uint64
	AssigneeID    *uint64
	Status        *models.TaskStatus
	DueDateFrom   *time.Time
	DueDateTo     *time.Time
	SortByDueDate bool
	Page          Page
}

// AuditFilter holds filtering options for listing audit rows
type AuditFilter struct {
	EntityType *models.EntityType
	EntityID   *uint64
	UserID     *uint64
	Page       Page
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username, active or not
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email, active or not
	FindByEmail(email string) (*models.User, error)

	// List retrieves users with filtering and pagination
	List(filter UserFilter) ([]models.User, int64, error)

	// Update writes the user if its version still matches
	Update(user *models.User) error

	// TouchLastLogin sets last_login without bumping the row version
	TouchLastLogin(id uint64, at time.Time) error

	// Delete removes the user and its role assignments
	Delete(user *models.User) error

	// CountReferences counts rows in other tables that reference the user
	CountReferences(id uint64) (int64, error)
}

// RoleRepository defines the interface for roles and role assignments
type RoleRepository interface {
	Create(role *models.Role) error
	FindByID(id uint64) (*models.Role, error)
	FindByName(name string) (*models.Role, error)
	List(page Page) ([]models.Role, int64, error)
	Update(role *models.Role) error

	// Delete removes the role and its assignments
	Delete(role *models.Role) error

	// Assign inserts a user-role pair
	Assign(userRole *models.UserRole) error

	// Unassign removes a user-role pair
	Unassign(userID, roleID uint64) error

	// FindAssignment finds a specific user-role pair
	FindAssignment(userID, roleID uint64) (*models.UserRole, error)

	// CountAssignments counts rows for a user-role pair
	CountAssignments(userID, roleID uint64) (int64, error)

	// NamesForUser returns the names of the roles assigned to a user
	NamesForUser(userID uint64) ([]string, error)
}

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(client *models.Client) error
	FindByID(id uint64) (*models.Client, error)
	List(page Page) ([]models.Client, int64, error)
	Update(client *models.Client) error
	Delete(client *models.Client) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	List(filter ProjectFilter) ([]models.Project, int64, error)
	Update(project *models.Project) error
	Delete(project *models.Project) error

	// CountByClient counts projects that reference a client
	CountByClient(clientID uint64) (int64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update writes the task if its version still matches
	Update(task *models.Task) error

	// Delete removes the task together with its comments and attachments
	Delete(task *models.Task) error

	// CountByProject counts tasks that belong to a project
	CountByProject(projectID uint64) (int64, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	FindByID(id uint64) (*models.Comment, error)
	ListByTask(taskID uint64, page Page) ([]models.Comment, int64, error)
	Update(comment *models.Comment) error
	Delete(comment *models.Comment) error
}

// AttachmentRepository defines the interface for attachment metadata
type AttachmentRepository interface {
	Create(attachment *models.Attachment) error
	FindByID(id uint64) (*models.Attachment, error)
	ListByTask(taskID uint64, page Page) ([]models.Attachment, int64, error)
	Delete(id uint64) error
}

// AuditLogRepository is append-only: it has no update or delete.
type AuditLogRepository interface {
	Append(entry *models.AuditLog) error
	FindByID(id uint64) (*models.AuditLog, error)
	List(filter AuditFilter) ([]models.AuditLog, int64, error)
}

// SessionRepository defines the interface for server-side session records
type SessionRepository interface {
	Create(session *models.Session) error
	FindByID(id string) (*models.Session, error)

	// Revoke sets revoked_at if it is not already set
	Revoke(id string, at time.Time) error

	// RevokeAllForUser revokes every live session of a user
	RevokeAllForUser(userID uint64, at time.Time) error
}
