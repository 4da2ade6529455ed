package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projectdesk/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestUpdateVersioned_ConditionsOnVersion(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectExec(`UPDATE "clients" SET .+ WHERE version = \$\d+ AND "id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	client := &models.Client{ID: 7, Name: "Acme", Version: 3}
	require.NoError(t, repo.Update(client))
	assert.Equal(t, uint64(4), client.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVersioned_ZeroRowsIsConflictWhenRowExists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectExec(`UPDATE "clients" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	client := &models.Client{ID: 7, Name: "Acme", Version: 3}
	err := repo.Update(client)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, uint64(3), client.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVersioned_ZeroRowsIsNotFoundWhenRowGone(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectExec(`UPDATE "clients" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := repo.Update(&models.Client{ID: 7, Name: "Acme", Version: 3})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
