package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "Create"
	AuditActionUpdate AuditAction = "Update"
	AuditActionDelete AuditAction = "Delete"
)

// AuditLog is append-only: rows are inserted and never updated or deleted.
type AuditLog struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	UserID     uint64         `gorm:"not null;index" json:"user_id"`
	EntityType EntityType     `gorm:"type:varchar(30);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   uint64         `gorm:"not null;index:idx_audit_entity" json:"entity_id"`
	Action     AuditAction    `gorm:"type:varchar(10);not null" json:"action"`
	OldValues  datatypes.JSON `json:"old_values,omitempty"`
	NewValues  datatypes.JSON `json:"new_values,omitempty"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	IPAddress  string         `gorm:"type:varchar(64)" json:"ip_address"`
	RequestID  string         `gorm:"type:varchar(64)" json:"request_id,omitempty"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
