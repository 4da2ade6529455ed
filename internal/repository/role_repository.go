package repository

import (
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormRoleRepository is a GORM implementation of RoleRepository
type GormRoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

func (r *GormRoleRepository) Create(role *models.Role) error {
	return translate(r.db.Create(role).Error)
}

func (r *GormRoleRepository) FindByID(id uint64) (*models.Role, error) {
	var role models.Role
	if err := r.db.First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *GormRoleRepository) FindByName(name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *GormRoleRepository) List(page Page) ([]models.Role, int64, error) {
	var total int64
	if err := r.db.Model(&models.Role{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var roles []models.Role
	if err := paginate(r.db.Order("name ASC"), page).Find(&roles).Error; err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *GormRoleRepository) Update(role *models.Role) error {
	return updateVersioned(r.db, role, role.ID, &role.Version)
}

// Delete removes the role and every assignment of it in a transaction
func (r *GormRoleRepository) Delete(role *models.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return deleteVersioned(tx, role, role.ID, role.Version)
	})
}

// Assign inserts a user-role pair
func (r *GormRoleRepository) Assign(userRole *models.UserRole) error {
	return translate(r.db.Create(userRole).Error)
}

// Unassign removes a user-role pair
func (r *GormRoleRepository) Unassign(userID, roleID uint64) error {
	result := r.db.Where("user_id = ? AND role_id = ?", userID, roleID).Delete(&models.UserRole{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAssignment finds a specific user-role pair
func (r *GormRoleRepository) FindAssignment(userID, roleID uint64) (*models.UserRole, error) {
	var userRole models.UserRole
	if err := r.db.Where("user_id = ? AND role_id = ?", userID, roleID).
		First(&userRole).Error; err != nil {
		return nil, translate(err)
	}
	return &userRole, nil
}

// CountAssignments counts rows for a user-role pair
func (r *GormRoleRepository) CountAssignments(userID, roleID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	return count, err
}

// NamesForUser returns the sorted names of the roles assigned to a user
func (r *GormRoleRepository) NamesForUser(userID uint64) ([]string, error) {
	names := []string{}
	err := r.db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Pluck("roles.name", &names).Error
	return names, err
}
