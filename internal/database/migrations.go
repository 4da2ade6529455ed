package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes AutoMigrate cannot express through
// single-column tags
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns []string
	}{
		// Task list filters
		{"tasks", "idx_tasks_project_status", []string{"project_id", "status"}},
		{"tasks", "idx_tasks_assignee_due_date", []string{"assignee_id", "due_date"}},

		// Project list filters
		{"projects", "idx_projects_client_status", []string{"client_id", "status"}},

		// Audit queries by actor over time
		{"audit_logs", "idx_audit_logs_user_timestamp", []string{"user_id", "timestamp"}},

		// Revoking every session of a user
		{"sessions", "idx_sessions_user_revoked", []string{"user_id", "revoked_at"}},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}

		quoted := make([]string, len(idx.columns))
		for i, column := range idx.columns {
			quoted[i] = db.Statement.Quote(column)
		}
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			db.Statement.Quote(idx.name), db.Statement.Quote(idx.table), strings.Join(quoted, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
	}

	return nil
}
