package models

import "time"

type User struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(100)" json:"last_name"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	Version      uint64     `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	UserRoles       []UserRole `gorm:"foreignKey:UserID" json:"-"`
	ManagedProjects []Project  `gorm:"foreignKey:ManagerID" json:"-"`
	AssignedTasks   []Task     `gorm:"foreignKey:AssigneeID" json:"-"`
	Comments        []Comment  `gorm:"foreignKey:UserID" json:"-"`
}
