package services

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
	"github.com/yukikurage/projectdesk/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// SessionState is the lifecycle state of a session token.
type SessionState string

const (
	SessionAnonymous      SessionState = "Anonymous"
	SessionAuthenticating SessionState = "Authenticating"
	SessionAuthenticated  SessionState = "Authenticated"
	SessionExpired        SessionState = "Expired"
	SessionRevoked        SessionState = "Revoked"
)

// secretBytes is the entropy of the secret half of a token.
const secretBytes = 32

// Principal is the caller identity bound to a valid token. Roles are the
// roles the user held when the token was issued.
type Principal struct {
	UserID    uint64
	Roles     []string
	SessionID string
	ExpiresAt time.Time
}

// SessionService issues, validates and revokes session tokens.
//
// A token has the form "<session id>.<hex secret>". Only the SHA-256 of the
// secret is stored.
type SessionService struct {
	store *repository.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a new SessionService. A non-positive ttl falls
// back to the default session lifetime.
func NewSessionService(store *repository.Store, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &SessionService{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// LoginInput holds the credentials for authentication. Identifier is a
// username or an email address.
type LoginInput struct {
	Identifier string
	Password   string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string
	Principal *Principal
	User      *models.User
}

// Login verifies credentials and issues a token. Unknown identifiers, wrong
// passwords and inactive users are indistinguishable to the caller.
func (s *SessionService) Login(input LoginInput) (*LoginResult, error) {
	identifier := FoldIdentifier(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.store.Users.FindByEmail(identifier)
	} else {
		user, err = s.store.Users.FindByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	secret, err := utils.GenerateSecret(secretBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}

	issuedAt := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		TokenHash: utils.HashSecret(secret),
		UserID:    user.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl),
	}

	err = s.store.Transaction(func(tx *repository.Store) error {
		roles, err := tx.Roles.NamesForUser(user.ID)
		if err != nil {
			return fmt.Errorf("failed to load roles: %w", err)
		}
		session.SetRoleNames(roles)

		if err := tx.Sessions.Create(session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return tx.Users.TouchLastLogin(user.ID, issuedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete login: %w", err)
	}
	user.LastLogin = &issuedAt

	return &LoginResult{
		Token:     session.ID + "." + secret,
		Principal: principalOf(session),
		User:      user,
	}, nil
}

func principalOf(session *models.Session) *Principal {
	return &Principal{
		UserID:    session.UserID,
		Roles:     session.RoleNames(),
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}
}

// parseToken splits a token into its session id and secret.
func parseToken(token string) (string, string, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok {
		return "", "", ErrMalformedToken
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", ErrMalformedToken
	}
	raw, err := hex.DecodeString(secret)
	if err != nil || len(raw) != secretBytes {
		return "", "", ErrMalformedToken
	}
	return id, secret, nil
}

// lookup resolves a token to its stored session.
func (s *SessionService) lookup(token string) (*models.Session, error) {
	id, secret, err := parseToken(token)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Sessions.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMalformedToken
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(utils.HashSecret(secret)), []byte(session.TokenHash)) != 1 {
		return nil, ErrMalformedToken
	}
	return session, nil
}

// Validate resolves a token to its principal. It never writes.
func (s *SessionService) Validate(token string) (*Principal, error) {
	session, err := s.lookup(token)
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, ErrRevokedToken
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, ErrExpiredToken
	}
	return principalOf(session), nil
}

// Logout revokes the session behind token. Revoking an already revoked or
// expired session succeeds.
func (s *SessionService) Logout(token string) error {
	session, err := s.lookup(token)
	if err != nil {
		return err
	}
	if err := s.store.Sessions.Revoke(session.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// State reports where token is in the session lifecycle. Authenticating is
// only ever observed inside Login, so State never returns it.
func (s *SessionService) State(token string) SessionState {
	if token == "" {
		return SessionAnonymous
	}
	_, err := s.Validate(token)
	switch {
	case err == nil:
		return SessionAuthenticated
	case errors.Is(err, ErrRevokedToken):
		return SessionRevoked
	case errors.Is(err, ErrExpiredToken):
		return SessionExpired
	default:
		return SessionAnonymous
	}
}
