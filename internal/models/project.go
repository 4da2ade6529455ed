package models

import "time"

type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "Planned"
	ProjectStatusActive    ProjectStatus = "Active"
	ProjectStatusOnHold    ProjectStatus = "OnHold"
	ProjectStatusCompleted ProjectStatus = "Completed"
	ProjectStatusCancelled ProjectStatus = "Cancelled"
)

// Valid reports whether s is one of the known project statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanned, ProjectStatusActive, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether a project in this status no longer accepts tasks.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusCancelled
}

type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	StartDate   time.Time     `gorm:"not null" json:"start_date"`
	EndDate     time.Time     `gorm:"not null" json:"end_date"`
	ClientID    uint64        `gorm:"not null;index" json:"client_id"`
	ManagerID   uint64        `gorm:"not null;index" json:"manager_id"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'Planned';index" json:"status"`
	Version     uint64        `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Client  *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Manager *User   `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Tasks   []Task  `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}
