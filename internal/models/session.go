package models

import (
	"strings"
	"time"
)

// Session is the server-side record behind a bearer token. Only the SHA-256
// of the token secret is stored.
type Session struct {
	ID        string     `gorm:"type:varchar(36);primarykey" json:"id"`
	TokenHash string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	UserID    uint64     `gorm:"not null;index" json:"user_id"`
	Roles     string     `gorm:"type:varchar(512)" json:"-"`
	IssuedAt  time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

// RoleNames returns the role snapshot bound to the session.
func (s Session) RoleNames() []string {
	if s.Roles == "" {
		return []string{}
	}
	return strings.Split(s.Roles, ",")
}

// SetRoleNames stores the role snapshot bound to the session.
func (s *Session) SetRoleNames(names []string) {
	s.Roles = strings.Join(names, ",")
}
