package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Full access to every entity"},
	{Name: models.RoleManager, Description: "Runs client projects and their tasks"},
	{Name: models.RoleMember, Description: "Works on assigned tasks"},
}

// SeedRoles creates the built-in roles that are missing
func SeedRoles(db *gorm.DB) error {
	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&models.Role{}).Where("name = ?", role.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
		if count > 0 {
			continue
		}

		role.Version = 1
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
		log.Printf("Seeded role %s", role.Name)
	}
	return nil
}

// SeedAdmin creates an active user holding the Admin role unless a user with
// that username already exists. An empty password skips seeding.
func SeedAdmin(db *gorm.DB, username, email, password string) (*models.User, error) {
	if password == "" {
		log.Println("No admin password configured, skipping admin seed")
		return nil, nil
	}
	if len(password) < constants.MinPasswordLength {
		return nil, fmt.Errorf("admin password must be at least %d characters", constants.MinPasswordLength)
	}

	username = services.FoldIdentifier(username)
	email = services.FoldIdentifier(email)

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		IsActive:     true,
		Version:      1,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
			return fmt.Errorf("admin role is missing: %w", err)
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: admin.ID, RoleID: role.ID, AssignedAt: time.Now().UTC()}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	log.Printf("Seeded admin user %s", admin.Username)
	return admin, nil
}
