package repository

import (
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) Create(attachment *models.Attachment) error {
	return translate(r.db.Omit("Task", "UploadedBy").Create(attachment).Error)
}

func (r *GormAttachmentRepository) FindByID(id uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.First(&attachment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &attachment, nil
}

func (r *GormAttachmentRepository) ListByTask(taskID uint64, page Page) ([]models.Attachment, int64, error) {
	query := r.db.Model(&models.Attachment{}).Where("task_id = ?", taskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attachments []models.Attachment
	listQuery := query.Order("uploaded_at ASC").Order("id ASC")
	if err := paginate(listQuery, page).Find(&attachments).Error; err != nil {
		return nil, 0, err
	}
	return attachments, total, nil
}

// Delete removes attachment metadata; attachments carry no version because
// they are never updated
func (r *GormAttachmentRepository) Delete(id uint64) error {
	result := r.db.Delete(&models.Attachment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
