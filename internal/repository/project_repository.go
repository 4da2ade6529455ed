package repository

import (
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(project *models.Project) error {
	return translate(r.db.Omit("Client", "Manager", "Tasks").Create(project).Error)
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// List retrieves projects with filtering and pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.Model(&models.Project{})

	if filter.ClientID != nil {
		query = query.Where("projects.client_id = ?", *filter.ClientID)
	}
	if filter.ManagerID != nil {
		query = query.Where("projects.manager_id = ?", *filter.ManagerID)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	listQuery := query.Order("projects.start_date ASC").Order("projects.id ASC")
	if err := paginate(listQuery, filter.Page).Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *GormProjectRepository) Update(project *models.Project) error {
	return updateVersioned(r.db, project, project.ID, &project.Version)
}

func (r *GormProjectRepository) Delete(project *models.Project) error {
	return deleteVersioned(r.db, project, project.ID, project.Version)
}

// CountByClient counts projects that reference a client
func (r *GormProjectRepository) CountByClient(clientID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Project{}).Where("client_id = ?", clientID).Count(&count).Error
	return count, err
}
