package repository

import (
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return translate(r.db.Omit("Task", "User").Create(comment).Error)
}

func (r *GormCommentRepository) FindByID(id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// ListByTask lists a task's comments oldest first
func (r *GormCommentRepository) ListByTask(taskID uint64, page Page) ([]models.Comment, int64, error) {
	query := r.db.Model(&models.Comment{}).Where("task_id = ?", taskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	listQuery := query.Preload("User").Order("created_at ASC").Order("id ASC")
	if err := paginate(listQuery, page).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *GormCommentRepository) Update(comment *models.Comment) error {
	return updateVersioned(r.db, comment, comment.ID, &comment.Version)
}

func (r *GormCommentRepository) Delete(comment *models.Comment) error {
	return deleteVersioned(r.db, comment, comment.ID, comment.Version)
}
