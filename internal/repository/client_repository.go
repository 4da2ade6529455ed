package repository

import (
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormClientRepository is a GORM implementation of ClientRepository
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(client *models.Client) error {
	return translate(r.db.Create(client).Error)
}

func (r *GormClientRepository) FindByID(id uint64) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (r *GormClientRepository) List(page Page) ([]models.Client, int64, error) {
	var total int64
	if err := r.db.Model(&models.Client{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clients []models.Client
	if err := paginate(r.db.Order("name ASC"), page).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *GormClientRepository) Update(client *models.Client) error {
	return updateVersioned(r.db, client, client.ID, &client.Version)
}

func (r *GormClientRepository) Delete(client *models.Client) error {
	return deleteVersioned(r.db, client, client.ID, client.Version)
}
