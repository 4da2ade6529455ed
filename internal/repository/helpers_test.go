package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second connection would open a different in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.Client{},
		&models.Project{},
		&models.Task{},
		&models.Comment{},
		&models.Attachment{},
		&models.AuditLog{},
		&models.Session{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		IsActive:     true,
		Version:      1,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, managerID uint64) *models.Project {
	t.Helper()
	client := &models.Client{Name: "Acme", Version: 1}
	require.NoError(t, db.Create(client).Error)

	project := &models.Project{
		Name:      "Website",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ClientID:  client.ID,
		ManagerID: managerID,
		Status:    models.ProjectStatusPlanned,
		Version:   1,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func createTestTask(t *testing.T, db *gorm.DB, projectID uint64, title string) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:     title,
		ProjectID: projectID,
		Priority:  models.TaskPriorityMedium,
		Status:    models.TaskStatusPending,
		Version:   1,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}
