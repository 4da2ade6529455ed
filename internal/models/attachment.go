package models

import "time"

// Attachment is metadata about a file kept by the external storage service.
// FilePath is an opaque storage reference and is never serialized.
type Attachment struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;index" json:"task_id"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileType     string    `gorm:"type:varchar(100)" json:"file_type"`
	FilePath     string    `gorm:"type:varchar(1024);not null" json:"-"`
	FileSize     int64     `gorm:"not null" json:"file_size"`
	UploadedByID uint64    `gorm:"not null;index" json:"uploaded_by_id"`
	UploadedAt   time.Time `gorm:"not null" json:"uploaded_at"`

	// Relations
	Task       *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

// AuditSnapshot is the shape recorded in the audit log. Unlike API output it
// keeps the storage reference.
func (a Attachment) AuditSnapshot() any {
	return struct {
		Attachment
		FilePath string `json:"file_path"`
	}{a, a.FilePath}
}
