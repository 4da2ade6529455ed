package repository

import (
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts an audit row
func (r *GormAuditLogRepository) Append(entry *models.AuditLog) error {
	return translate(r.db.Omit("User").Create(entry).Error)
}

func (r *GormAuditLogRepository) FindByID(id uint64) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := r.db.First(&entry, id).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// List retrieves audit rows newest first
func (r *GormAuditLogRepository) List(filter AuditFilter) ([]models.AuditLog, int64, error) {
	query := r.db.Model(&models.AuditLog{})

	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	listQuery := query.Order("timestamp DESC").Order("id DESC")
	if err := paginate(listQuery, filter.Page).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
