package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
	"gorm.io/datatypes"
)

// AuditService exposes the audit trail and writes audit rows on behalf of
// the other services.
type AuditService struct {
	store *repository.Store
	now   func() time.Time
}

// NewAuditService creates a new AuditService.
func NewAuditService(store *repository.Store) *AuditService {
	return &AuditService{store: store, now: time.Now}
}

// ListAuditInput represents filters for listing audit rows.
type ListAuditInput struct {
	EntityType *models.EntityType
	EntityID   *uint64
	UserID     *uint64
	Page       repository.Page
}

// List returns audit rows newest first.
func (s *AuditService) List(input ListAuditInput) ([]models.AuditLog, int64, error) {
	if input.EntityType != nil && !input.EntityType.Valid() {
		return nil, 0, invalid("entityType", "unknown entity type")
	}
	entries, total, err := s.store.AuditLogs.List(repository.AuditFilter{
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		UserID:     input.UserID,
		Page:       input.Page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, total, nil
}

// Get returns a single audit row.
func (s *AuditService) Get(id uint64) (*models.AuditLog, error) {
	entry, err := s.store.AuditLogs.FindByID(id)
	if err != nil {
		return nil, storeErr("audit log", "find", err)
	}
	return entry, nil
}

// recorder writes audit rows inside the caller's transaction so that the
// mutation and its audit row commit or roll back together.
type recorder struct {
	now func() time.Time
}

func (r recorder) record(tx *repository.Store, actor Actor, entity models.EntityType, entityID uint64, action models.AuditAction, before, after any) error {
	oldValues, err := snapshot(before)
	if err != nil {
		return fmt.Errorf("failed to serialize old %s: %w", entity, err)
	}
	newValues, err := snapshot(after)
	if err != nil {
		return fmt.Errorf("failed to serialize new %s: %w", entity, err)
	}

	entry := &models.AuditLog{
		UserID:     actor.UserID,
		EntityType: entity,
		EntityID:   entityID,
		Action:     action,
		OldValues:  oldValues,
		NewValues:  newValues,
		Timestamp:  r.now().UTC(),
		IPAddress:  actor.IPAddress,
		RequestID:  actor.RequestID,
	}
	if err := tx.AuditLogs.Append(entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// auditShaper is implemented by models whose audit record differs from their
// JSON form.
type auditShaper interface {
	AuditSnapshot() any
}

func snapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	if shaper, ok := v.(auditShaper); ok {
		v = shaper.AuditSnapshot()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
