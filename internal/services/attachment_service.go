package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
)

// AttachmentService records attachment metadata. File contents live in an
// external store and are addressed only by FilePath.
type AttachmentService struct {
	store *repository.Store
	audit recorder
	now   func() time.Time
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(store *repository.Store, audit *AuditService) *AttachmentService {
	return &AttachmentService{
		store: store,
		audit: recorder{now: audit.now},
		now:   audit.now,
	}
}

type CreateAttachmentInput struct {
	TaskID   uint64
	FileName string
	FileType string
	FilePath string
	FileSize int64
}

// Create records an attachment uploaded by the actor
func (s *AttachmentService) Create(actor Actor, input CreateAttachmentInput) (*models.Attachment, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, invalid("fileName", "is required")
	}
	filePath := strings.TrimSpace(input.FilePath)
	if filePath == "" {
		return nil, invalid("filePath", "is required")
	}
	if input.FileSize < 0 {
		return nil, invalid("fileSize", "must not be negative")
	}

	attachment := &models.Attachment{
		TaskID:       input.TaskID,
		FileName:     fileName,
		FileType:     strings.TrimSpace(input.FileType),
		FilePath:     filePath,
		FileSize:     input.FileSize,
		UploadedByID: actor.UserID,
		UploadedAt:   s.now().UTC(),
	}
	err := s.store.Transaction(func(tx *repository.Store) error {
		if err := existingTask(tx, attachment.TaskID); err != nil {
			return err
		}
		if err := tx.Attachments.Create(attachment); err != nil {
			return storeErr("attachment", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityAttachment, attachment.ID, models.AuditActionCreate, nil, attachment)
	})
	if err != nil {
		return nil, txErr("attachment", "create", err)
	}
	return attachment, nil
}

func (s *AttachmentService) Get(id uint64) (*models.Attachment, error) {
	attachment, err := s.store.Attachments.FindByID(id)
	if err != nil {
		return nil, storeErr("attachment", "find", err)
	}
	return attachment, nil
}

func (s *AttachmentService) ListByTask(taskID uint64, page repository.Page) ([]models.Attachment, int64, error) {
	if _, err := s.store.Tasks.FindByID(taskID); err != nil {
		return nil, 0, storeErr("task", "find", err)
	}
	attachments, total, err := s.store.Attachments.ListByTask(taskID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, total, nil
}

// Delete removes attachment metadata. The stored file is not touched.
func (s *AttachmentService) Delete(actor Actor, id uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		attachment, err := tx.Attachments.FindByID(id)
		if err != nil {
			return storeErr("attachment", "find", err)
		}
		if err := actor.requireOwnership(attachment.UploadedByID); err != nil {
			return err
		}
		if err := tx.Attachments.Delete(attachment.ID); err != nil {
			return storeErr("attachment", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityAttachment, attachment.ID, models.AuditActionDelete, attachment, nil)
	})
	return txErr("attachment", "delete", err)
}
