package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projectdesk/internal/models"
)

func TestTaskRepository_UpdateAdvancesVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	manager := createTestUser(t, db, "manager")
	project := createTestProject(t, db, manager.ID)
	task := createTestTask(t, db, project.ID, "Draft")

	task.Title = "Final"
	require.NoError(t, repo.Update(task))
	assert.Equal(t, uint64(2), task.Version)

	stored, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", stored.Title)
	assert.Equal(t, uint64(2), stored.Version)
}

func TestTaskRepository_StaleVersionConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	manager := createTestUser(t, db, "manager")
	project := createTestProject(t, db, manager.ID)
	task := createTestTask(t, db, project.ID, "Draft")

	first, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(task.ID)
	require.NoError(t, err)

	first.Title = "First writer"
	require.NoError(t, repo.Update(first))

	second.Title = "Second writer"
	err = repo.Update(second)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, uint64(1), second.Version, "version must stay at the value read")

	stored, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "First writer", stored.Title)
}

func TestTaskRepository_UpdateMissingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	err := repo.Update(&models.Task{ID: 999, Title: "ghost", Version: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_DeleteCascadesCommentsAndAttachments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	manager := createTestUser(t, db, "manager")
	project := createTestProject(t, db, manager.ID)
	task := createTestTask(t, db, project.ID, "With children")
	other := createTestTask(t, db, project.ID, "Sibling")

	require.NoError(t, db.Create(&models.Comment{TaskID: task.ID, UserID: manager.ID, Content: "hi", Version: 1}).Error)
	require.NoError(t, db.Create(&models.Comment{TaskID: other.ID, UserID: manager.ID, Content: "keep", Version: 1}).Error)
	require.NoError(t, db.Create(&models.Attachment{
		TaskID: task.ID, FileName: "spec.pdf", FilePath: "blobs/1", FileSize: 10,
		UploadedByID: manager.ID, UploadedAt: time.Now(),
	}).Error)

	require.NoError(t, repo.Delete(task))

	var comments, attachments int64
	db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&comments)
	db.Model(&models.Attachment{}).Where("task_id = ?", task.ID).Count(&attachments)
	assert.Zero(t, comments)
	assert.Zero(t, attachments)

	var kept int64
	db.Model(&models.Comment{}).Where("task_id = ?", other.ID).Count(&kept)
	assert.Equal(t, int64(1), kept)

	_, err := repo.FindByID(task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_DeleteStaleVersionKeepsChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	manager := createTestUser(t, db, "manager")
	project := createTestProject(t, db, manager.ID)
	task := createTestTask(t, db, project.ID, "Guarded")
	require.NoError(t, db.Create(&models.Comment{TaskID: task.ID, UserID: manager.ID, Content: "hi", Version: 1}).Error)

	stale := *task
	stale.Version = 7
	assert.ErrorIs(t, repo.Delete(&stale), ErrVersionConflict)

	var comments int64
	db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&comments)
	assert.Equal(t, int64(1), comments, "rolled back delete must keep comments")
}

func TestTaskRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	manager := createTestUser(t, db, "manager")
	project := createTestProject(t, db, manager.ID)
	createTestTask(t, db, project.ID, "one")
	blocked := createTestTask(t, db, project.ID, "two")
	blocked.Status = models.TaskStatusBlocked
	blocked.AssigneeID = &manager.ID
	require.NoError(t, repo.Update(blocked))

	status := models.TaskStatusBlocked
	tasks, total, err := repo.List(TaskFilter{ProjectID: &project.ID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "two", tasks[0].Title)
	require.NotNil(t, tasks[0].Assignee)
	assert.Equal(t, manager.ID, tasks[0].Assignee.ID)

	tasks, total, err = repo.List(TaskFilter{ProjectID: &project.ID, Page: Page{Number: 2, Size: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 1)
}
