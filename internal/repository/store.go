package repository

import "gorm.io/gorm"

// Store groups the repositories that share one database handle. A Store
// obtained inside Transaction reads and writes through the transaction.
type Store struct {
	db *gorm.DB

	Users       UserRepository
	Roles       RoleRepository
	Clients     ClientRepository
	Projects    ProjectRepository
	Tasks       TaskRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
	AuditLogs   AuditLogRepository
	Sessions    SessionRepository
}

// NewStore creates a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Roles:       NewRoleRepository(db),
		Clients:     NewClientRepository(db),
		Projects:    NewProjectRepository(db),
		Tasks:       NewTaskRepository(db),
		Comments:    NewCommentRepository(db),
		Attachments: NewAttachmentRepository(db),
		AuditLogs:   NewAuditLogRepository(db),
		Sessions:    NewSessionRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
