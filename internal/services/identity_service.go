package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// IdentityService manages users, roles and role assignments.
type IdentityService struct {
	store *repository.Store
	audit recorder
	now   func() time.Time
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(store *repository.Store, audit *AuditService) *IdentityService {
	return &IdentityService{
		store: store,
		audit: recorder{now: audit.now},
		now:   audit.now,
	}
}

// FoldIdentifier normalizes a username or email for storage and lookup.
// A Caser is not safe for concurrent use, so one is built per call.
func FoldIdentifier(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// CreateUserInput represents the profile of a new user.
type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserInput represents a partial profile update. Version is the
// version the caller read.
type UpdateUserInput struct {
	Version   uint64
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

// ListUsersInput represents filters for listing users.
type ListUsersInput struct {
	ActiveOnly bool
	RoleID     *uint64
	Page       repository.Page
}

// CreateRoleInput represents a new role.
type CreateRoleInput struct {
	Name        string
	Description string
}

// UpdateRoleInput represents a partial role update.
type UpdateRoleInput struct {
	Version     uint64
	Name        *string
	Description *string
}

func validateUsername(username string) error {
	switch {
	case username == "":
		return invalid("username", "is required")
	case len(username) > constants.MaxUsernameLength:
		return invalid("username", fmt.Sprintf("must be at most %d characters", constants.MaxUsernameLength))
	case strings.ContainsAny(username, "@ \t\n"):
		return invalid("username", "must not contain spaces or @")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "is not a valid address")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", invalid("password", fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

// ensureIdentityFree fails with ErrDuplicateIdentity when another user,
// active or not, holds the username or email.
func ensureIdentityFree(tx *repository.Store, selfID uint64, username, email string) error {
	if username != "" {
		existing, err := tx.Users.FindByUsername(username)
		if err == nil && existing.ID != selfID {
			return fmt.Errorf("username %q: %w", username, ErrDuplicateIdentity)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}
	}
	if email != "" {
		existing, err := tx.Users.FindByEmail(email)
		if err == nil && existing.ID != selfID {
			return fmt.Errorf("email %q: %w", email, ErrDuplicateIdentity)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
	}
	return nil
}

// newUser validates a profile and builds the user row for it.
func newUser(input CreateUserInput) (*models.User, error) {
	username := FoldIdentifier(input.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email := FoldIdentifier(input.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
		Version:      1,
	}, nil
}

// CreateUser creates an active user without roles.
func (s *IdentityService) CreateUser(actor Actor, input CreateUserInput) (*models.User, error) {
	user, err := newUser(input)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := ensureIdentityFree(tx, 0, user.Username, user.Email); err != nil {
			return err
		}
		if err := tx.Users.Create(user); err != nil {
			return storeErr("user", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityUser, user.ID, models.AuditActionCreate, nil, user)
	})
	if err != nil {
		return nil, txErr("user", "create", err)
	}
	return user, nil
}

// Register creates an active user holding the default Member role. The new
// user is recorded as the actor of its own creation.
func (s *IdentityService) Register(input CreateUserInput, ipAddress, requestID string) (*models.User, error) {
	user, err := newUser(input)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := ensureIdentityFree(tx, 0, user.Username, user.Email); err != nil {
			return err
		}
		member, err := tx.Roles.FindByName(models.RoleMember)
		if err != nil {
			return storeErr("role", "find", err)
		}
		if err := tx.Users.Create(user); err != nil {
			return storeErr("user", "create", err)
		}
		if err := tx.Roles.Assign(&models.UserRole{
			UserID:     user.ID,
			RoleID:     member.ID,
			AssignedAt: s.now().UTC(),
		}); err != nil {
			return storeErr("role assignment", "create", err)
		}

		actor := Actor{UserID: user.ID, IPAddress: ipAddress, RequestID: requestID}
		return s.audit.record(tx, actor, models.EntityUser, user.ID, models.AuditActionCreate, nil, user)
	})
	if err != nil {
		return nil, txErr("user", "register", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *IdentityService) GetUser(id uint64) (*models.User, error) {
	user, err := s.store.Users.FindByID(id)
	if err != nil {
		return nil, storeErr("user", "find", err)
	}
	return user, nil
}

// ListUsers returns users ordered by ID.
func (s *IdentityService) ListUsers(input ListUsersInput) ([]models.User, int64, error) {
	users, total, err := s.store.Users.List(repository.UserFilter{
		ActiveOnly: input.ActiveOnly,
		RoleID:     input.RoleID,
		Page:       input.Page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdateUser applies a profile update to a user the actor may modify.
func (s *IdentityService) UpdateUser(actor Actor, id uint64, input UpdateUserInput) (*models.User, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}

	var user *models.User
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.FindByID(id)
		if err != nil {
			return storeErr("user", "find", err)
		}
		if err := actor.requireOwnership(user.ID); err != nil {
			return err
		}
		before := *user

		if input.Email != nil {
			email := FoldIdentifier(*input.Email)
			if err := validateEmail(email); err != nil {
				return err
			}
			if err := ensureIdentityFree(tx, user.ID, "", email); err != nil {
				return err
			}
			user.Email = email
		}
		if input.Password != nil {
			hashed, err := hashPassword(*input.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hashed
		}
		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			user.LastName = strings.TrimSpace(*input.LastName)
		}

		user.Version = input.Version
		if err := tx.Users.Update(user); err != nil {
			return storeErr("user", "update", err)
		}
		return s.audit.record(tx, actor, models.EntityUser, user.ID, models.AuditActionUpdate, before, user)
	})
	if err != nil {
		return nil, txErr("user", "update", err)
	}
	return user, nil
}

// DeleteUser hard-deletes a user that nothing references. Users with history
// must be deactivated instead.
func (s *IdentityService) DeleteUser(actor Actor, id, version uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		user, err := tx.Users.FindByID(id)
		if err != nil {
			return storeErr("user", "find", err)
		}
		if err := actor.requireOwnership(user.ID); err != nil {
			return err
		}
		refs, err := tx.Users.CountReferences(user.ID)
		if err != nil {
			return fmt.Errorf("failed to count user references: %w", err)
		}
		if refs > 0 {
			return invalid("id", "user is referenced by projects, tasks, comments, attachments or audit history; deactivate instead")
		}

		before := *user
		if version != 0 {
			user.Version = version
		}
		if err := tx.Users.Delete(user); err != nil {
			return storeErr("user", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityUser, user.ID, models.AuditActionDelete, before, nil)
	})
	return txErr("user", "delete", err)
}

// Deactivate marks a user inactive and revokes its live sessions. History
// and references are kept.
func (s *IdentityService) Deactivate(actor Actor, id, version uint64) (*models.User, error) {
	return s.setActive(actor, id, version, false)
}

// Activate re-enables a deactivated user.
func (s *IdentityService) Activate(actor Actor, id, version uint64) (*models.User, error) {
	return s.setActive(actor, id, version, true)
}

// setActive flips IsActive. A non-zero version must match the stored one,
// even when the user is already in the requested state.
func (s *IdentityService) setActive(actor Actor, id, version uint64, active bool) (*models.User, error) {
	var user *models.User
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.FindByID(id)
		if err != nil {
			return storeErr("user", "find", err)
		}
		if err := actor.requireOwnership(user.ID); err != nil {
			return err
		}
		if version != 0 && version != user.Version {
			return fmt.Errorf("user: %w", ErrConcurrentModification)
		}
		if user.IsActive == active {
			return nil
		}

		before := *user
		user.IsActive = active
		if err := tx.Users.Update(user); err != nil {
			return storeErr("user", "update", err)
		}
		if !active {
			if err := tx.Sessions.RevokeAllForUser(user.ID, s.now().UTC()); err != nil {
				return fmt.Errorf("failed to revoke sessions: %w", err)
			}
		}
		return s.audit.record(tx, actor, models.EntityUser, user.ID, models.AuditActionUpdate, before, user)
	})
	if err != nil {
		return nil, txErr("user", "update", err)
	}
	return user, nil
}

// AssignRole grants a role to a user. A pair that already exists fails
// with ErrAlreadyAssigned and leaves the existing row untouched.
func (s *IdentityService) AssignRole(actor Actor, userID, roleID uint64) (*models.UserRole, error) {
	var assignment *models.UserRole
	err := s.store.Transaction(func(tx *repository.Store) error {
		if _, err := tx.Users.FindByID(userID); err != nil {
			return storeErr("user", "find", err)
		}
		if _, err := tx.Roles.FindByID(roleID); err != nil {
			return storeErr("role", "find", err)
		}

		count, err := tx.Roles.CountAssignments(userID, roleID)
		if err != nil {
			return fmt.Errorf("failed to check role assignment: %w", err)
		}
		if count > 0 {
			return ErrAlreadyAssigned
		}

		assignment = &models.UserRole{
			UserID:     userID,
			RoleID:     roleID,
			AssignedAt: s.now().UTC(),
		}
		if err := tx.Roles.Assign(assignment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyAssigned
			}
			return storeErr("role assignment", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityUserRole, userID, models.AuditActionCreate, nil, assignment)
	})
	if err != nil {
		return nil, txErr("role assignment", "create", err)
	}
	return assignment, nil
}

// RevokeRole removes a role from a user.
func (s *IdentityService) RevokeRole(actor Actor, userID, roleID uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		assignment, err := tx.Roles.FindAssignment(userID, roleID)
		if err != nil {
			return storeErr("role assignment", "find", err)
		}
		if err := tx.Roles.Unassign(userID, roleID); err != nil {
			return storeErr("role assignment", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityUserRole, userID, models.AuditActionDelete, assignment, nil)
	})
	return txErr("role assignment", "delete", err)
}

// RolesFor returns the names of the roles a user holds.
func (s *IdentityService) RolesFor(userID uint64) ([]string, error) {
	if _, err := s.store.Users.FindByID(userID); err != nil {
		return nil, storeErr("user", "find", err)
	}
	names, err := s.store.Roles.NamesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return names, nil
}

func normalizeRoleName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "is required")
	}
	if strings.Contains(name, ",") {
		return "", invalid("name", "must not contain commas")
	}
	return name, nil
}

func ensureRoleNameFree(tx *repository.Store, selfID uint64, name string) error {
	existing, err := tx.Roles.FindByName(name)
	if err == nil && existing.ID != selfID {
		return invalid("name", "is already in use")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check role name: %w", err)
	}
	return nil
}

// CreateRole creates a role.
func (s *IdentityService) CreateRole(actor Actor, input CreateRoleInput) (*models.Role, error) {
	name, err := normalizeRoleName(input.Name)
	if err != nil {
		return nil, err
	}

	role := &models.Role{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Version:     1,
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := ensureRoleNameFree(tx, 0, name); err != nil {
			return err
		}
		if err := tx.Roles.Create(role); err != nil {
			return storeErr("role", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityRole, role.ID, models.AuditActionCreate, nil, role)
	})
	if err != nil {
		return nil, txErr("role", "create", err)
	}
	return role, nil
}

// GetRole retrieves a role by ID.
func (s *IdentityService) GetRole(id uint64) (*models.Role, error) {
	role, err := s.store.Roles.FindByID(id)
	if err != nil {
		return nil, storeErr("role", "find", err)
	}
	return role, nil
}

// ListRoles returns roles ordered by name.
func (s *IdentityService) ListRoles(page repository.Page) ([]models.Role, int64, error) {
	roles, total, err := s.store.Roles.List(page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, total, nil
}

// UpdateRole renames or re-describes a role. Sessions keep the role names
// they were issued with.
func (s *IdentityService) UpdateRole(actor Actor, id uint64, input UpdateRoleInput) (*models.Role, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}

	var role *models.Role
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		role, err = tx.Roles.FindByID(id)
		if err != nil {
			return storeErr("role", "find", err)
		}
		before := *role

		if input.Name != nil {
			name, err := normalizeRoleName(*input.Name)
			if err != nil {
				return err
			}
			if err := ensureRoleNameFree(tx, role.ID, name); err != nil {
				return err
			}
			role.Name = name
		}
		if input.Description != nil {
			role.Description = strings.TrimSpace(*input.Description)
		}

		role.Version = input.Version
		if err := tx.Roles.Update(role); err != nil {
			return storeErr("role", "update", err)
		}
		return s.audit.record(tx, actor, models.EntityRole, role.ID, models.AuditActionUpdate, before, role)
	})
	if err != nil {
		return nil, txErr("role", "update", err)
	}
	return role, nil
}

// DeleteRole deletes a role together with its assignments.
func (s *IdentityService) DeleteRole(actor Actor, id, version uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		role, err := tx.Roles.FindByID(id)
		if err != nil {
			return storeErr("role", "find", err)
		}
		before := *role
		if version != 0 {
			role.Version = version
		}
		if err := tx.Roles.Delete(role); err != nil {
			return storeErr("role", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityRole, role.ID, models.AuditActionDelete, before, nil)
	})
	return txErr("role", "delete", err)
}
