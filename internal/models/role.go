package models

import "time"

// Names of the roles seeded on migrate.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleMember  = "Member"
)

type Role struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Version     uint64    `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	UserRoles []UserRole `gorm:"foreignKey:RoleID" json:"-"`
}

type UserRole struct {
	UserID     uint64    `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	RoleID     uint64    `gorm:"primarykey;autoIncrement:false" json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}
