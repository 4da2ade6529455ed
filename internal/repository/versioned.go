package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateVersioned writes every column of model except omit in a single
// UPDATE ... WHERE id = ? AND version = ?. On success *version is advanced;
// on failure it is left at the value the caller read.
func updateVersioned(db *gorm.DB, model any, id uint64, version *uint64, omit ...string) error {
	expected := *version
	*version = expected + 1

	result := db.Model(model).
		Where("version = ?", expected).
		Select("*").
		Omit(append([]string{"id", "created_at", clause.Associations}, omit...)...).
		Updates(model)
	if result.Error != nil {
		*version = expected
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		*version = expected
		return missingOrStale(db, model, id)
	}
	return nil
}

// deleteVersioned deletes model only if its version still matches.
func deleteVersioned(db *gorm.DB, model any, id, version uint64) error {
	result := db.Where("version = ?", version).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return missingOrStale(db, model, id)
	}
	return nil
}

// missingOrStale tells a vanished row apart from a version mismatch after a
// conditional write matched nothing.
func missingOrStale(db *gorm.DB, model any, id uint64) error {
	var count int64
	if err := db.Session(&gorm.Session{NewDB: true}).
		Model(model).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// translate maps GORM's not-found and duplicate-key errors onto the
// repository errors. Duplicate keys are only recognised when the connection
// was opened with TranslateError.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func paginate(query *gorm.DB, page Page) *gorm.DB {
	if !page.enabled() {
		return query
	}
	return query.Offset(page.offset()).Limit(page.Size)
}
