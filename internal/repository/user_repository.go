package repository

import (
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return translate(r.db.Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// List retrieves users with filtering and pagination
func (r *GormUserRepository) List(filter UserFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if filter.ActiveOnly {
		query = query.Where("users.is_active = ?", true)
	}
	if filter.RoleID != nil {
		query = query.Where("EXISTS (?)", r.db.Model(&models.UserRole{}).
			Select("1").
			Where("user_roles.user_id = users.id").
			Where("user_roles.role_id = ?", *filter.RoleID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := paginate(query.Order("users.id ASC"), filter.Page).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update writes the user if its version still matches. LastLogin is owned
// by TouchLastLogin, which does not advance the version, and is never
// written here.
func (r *GormUserRepository) Update(user *models.User) error {
	return updateVersioned(r.db, user, user.ID, &user.Version, "last_login")
}

// TouchLastLogin records a successful login
func (r *GormUserRepository) TouchLastLogin(id uint64, at time.Time) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user and its role assignments in a transaction
func (r *GormUserRepository) Delete(user *models.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return deleteVersioned(tx, user, user.ID, user.Version)
	})
}

// CountReferences counts projects, tasks, comments, attachments and audit
// rows that point at the user
func (r *GormUserRepository) CountReferences(id uint64) (int64, error) {
	checks := []struct {
		model  any
		column string
	}{
		{&models.Project{}, "manager_id"},
		{&models.Task{}, "assignee_id"},
		{&models.Comment{}, "user_id"},
		{&models.Attachment{}, "uploaded_by_id"},
		{&models.AuditLog{}, "user_id"},
	}

	var total int64
	for _, check := range checks {
		var count int64
		if err := r.db.Model(check.model).Where(check.column+" = ?", id).Count(&count).Error; err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}
