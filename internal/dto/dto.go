package dto

import (
	"encoding/json"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/services"
	"github.com/yukikurage/projectdesk/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	Version   uint64     `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserSummaryDTO represents a related user embedded in another entity
type UserSummaryDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// RoleDTO represents a role in API responses
type RoleDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     uint64    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRoleDTO represents a role assignment
type UserRoleDTO struct {
	UserID     uint64    `json:"user_id"`
	RoleID     uint64    `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ClientDTO represents a client in API responses
type ClientDTO struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Notes        string    `json:"notes"`
	Version      uint64    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectSummaryDTO represents a related project embedded in a task
type ProjectSummaryDTO struct {
	ID     uint64               `json:"id"`
	Name   string               `json:"name"`
	Status models.ProjectStatus `json:"status"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	StartDate   time.Time            `json:"start_date"`
	EndDate     time.Time            `json:"end_date"`
	ClientID    uint64               `json:"client_id"`
	ManagerID   uint64               `json:"manager_id"`
	Status      models.ProjectStatus `json:"status"`
	Version     uint64               `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Client      *ClientDTO           `json:"client,omitempty"`
	Manager     *UserSummaryDTO      `json:"manager,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ProjectID   uint64              `json:"project_id"`
	AssigneeID  *uint64             `json:"assignee_id"`
	Priority    models.TaskPriority `json:"priority"`
	Status      models.TaskStatus   `json:"status"`
	DueDate     *time.Time          `json:"due_date"`
	Version     uint64              `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Project     *ProjectSummaryDTO  `json:"project,omitempty"`
	Assignee    *UserSummaryDTO     `json:"assignee,omitempty"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64          `json:"id"`
	TaskID    uint64          `json:"task_id"`
	UserID    uint64          `json:"user_id"`
	Content   string          `json:"content"`
	Version   uint64          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	User      *UserSummaryDTO `json:"user,omitempty"`
}

// AttachmentDTO represents attachment metadata. The storage path is never
// exposed.
type AttachmentDTO struct {
	ID           uint64    `json:"id"`
	TaskID       uint64    `json:"task_id"`
	FileName     string    `json:"file_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	UploadedByID uint64    `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// AuditLogDTO represents an audit entry
type AuditLogDTO struct {
	ID         uint64             `json:"id"`
	UserID     uint64             `json:"user_id"`
	EntityType models.EntityType  `json:"entity_type"`
	EntityID   uint64             `json:"entity_id"`
	Action     models.AuditAction `json:"action"`
	OldValues  json.RawMessage    `json:"old_values"`
	NewValues  json.RawMessage    `json:"new_values"`
	Timestamp  time.Time          `json:"timestamp"`
	IPAddress  string             `json:"ip_address"`
	RequestID  string             `json:"request_id"`
}

// SuggestedTaskDTO represents a task proposed for a project
type SuggestedTaskDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// ListResponse represents a page of entities
type ListResponse struct {
	Items      any                       `json:"items"`
	Pagination *utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		Version:   user.Version,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toUserSummary(user *models.User) *UserSummaryDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &UserSummaryDTO{ID: user.ID, Username: user.Username}
}

// ToRoleDTO converts a Role model to RoleDTO
func ToRoleDTO(role models.Role) RoleDTO {
	return RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Version:     role.Version,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

// ToClientDTO converts a Client model to ClientDTO
func ToClientDTO(client models.Client) ClientDTO {
	return ClientDTO{
		ID:           client.ID,
		Name:         client.Name,
		ContactName:  client.ContactName,
		ContactEmail: client.ContactEmail,
		ContactPhone: client.ContactPhone,
		Notes:        client.Notes,
		Version:      client.Version,
		CreatedAt:    client.CreatedAt,
		UpdatedAt:    client.UpdatedAt,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		ClientID:    project.ClientID,
		ManagerID:   project.ManagerID,
		Status:      project.Status,
		Version:     project.Version,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Manager:     toUserSummary(project.Manager),
	}

	// Include client if preloaded
	if project.Client != nil && project.Client.ID != 0 {
		client := ToClientDTO(*project.Client)
		dto.Client = &client
	}

	return dto
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ProjectID:   task.ProjectID,
		AssigneeID:  task.AssigneeID,
		Priority:    task.Priority,
		Status:      task.Status,
		DueDate:     task.DueDate,
		Version:     task.Version,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Assignee:    toUserSummary(task.Assignee),
	}

	// Include project if preloaded
	if task.Project != nil && task.Project.ID != 0 {
		dto.Project = &ProjectSummaryDTO{
			ID:     task.Project.ID,
			Name:   task.Project.Name,
			Status: task.Project.Status,
		}
	}

	return dto
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		Version:   comment.Version,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		User:      toUserSummary(comment.User),
	}
}

// ToAttachmentDTO converts an Attachment model to AttachmentDTO
func ToAttachmentDTO(attachment models.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:           attachment.ID,
		TaskID:       attachment.TaskID,
		FileName:     attachment.FileName,
		FileType:     attachment.FileType,
		FileSize:     attachment.FileSize,
		UploadedByID: attachment.UploadedByID,
		UploadedAt:   attachment.UploadedAt,
	}
}

func rawSnapshot(v []byte) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(v)
}

// ToAuditLogDTO converts an AuditLog model to AuditLogDTO
func ToAuditLogDTO(entry models.AuditLog) AuditLogDTO {
	return AuditLogDTO{
		ID:         entry.ID,
		UserID:     entry.UserID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		OldValues:  rawSnapshot(entry.OldValues),
		NewValues:  rawSnapshot(entry.NewValues),
		Timestamp:  entry.Timestamp,
		IPAddress:  entry.IPAddress,
		RequestID:  entry.RequestID,
	}
}

func mapSlice[M, D any](items []M, fn func(M) D) []D {
	out := make([]D, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// From converts a value returned by the facade into its response shape.
// Values without a DTO are returned unchanged.
func From(v any) any {
	switch v := v.(type) {
	case *models.User:
		return ToUserDTO(*v)
	case []models.User:
		return mapSlice(v, ToUserDTO)
	case *models.Role:
		return ToRoleDTO(*v)
	case []models.Role:
		return mapSlice(v, ToRoleDTO)
	case *models.UserRole:
		return UserRoleDTO{UserID: v.UserID, RoleID: v.RoleID, AssignedAt: v.AssignedAt}
	case []models.UserRole:
		return mapSlice(v, func(ur models.UserRole) UserRoleDTO {
			return UserRoleDTO{UserID: ur.UserID, RoleID: ur.RoleID, AssignedAt: ur.AssignedAt}
		})
	case *models.Client:
		return ToClientDTO(*v)
	case []models.Client:
		return mapSlice(v, ToClientDTO)
	case *models.Project:
		return ToProjectDTO(*v)
	case []models.Project:
		return mapSlice(v, ToProjectDTO)
	case *models.Task:
		return ToTaskDTO(*v)
	case []models.Task:
		return mapSlice(v, ToTaskDTO)
	case *models.Comment:
		return ToCommentDTO(*v)
	case []models.Comment:
		return mapSlice(v, ToCommentDTO)
	case *models.Attachment:
		return ToAttachmentDTO(*v)
	case []models.Attachment:
		return mapSlice(v, ToAttachmentDTO)
	case *models.AuditLog:
		return ToAuditLogDTO(*v)
	case []models.AuditLog:
		return mapSlice(v, ToAuditLogDTO)
	case []services.SuggestedTask:
		return mapSlice(v, func(t services.SuggestedTask) SuggestedTaskDTO {
			return SuggestedTaskDTO{Title: t.Title, Description: t.Description, Priority: t.Priority, DueDate: t.DueDate}
		})
	}
	return v
}

// ToListResponse wraps a converted page of entities
func ToListResponse(items any, pagination *utils.PaginationResponse) ListResponse {
	return ListResponse{Items: From(items), Pagination: pagination}
}
