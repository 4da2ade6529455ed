package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/projectdesk/internal/models"
)

type SessionServiceTestSuite struct {
	serviceSuite
}

func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}

func (s *SessionServiceTestSuite) TestLogin_ByUsernameOrEmail() {
	user := s.seedUser("bob", models.RoleMember)

	byName, err := s.sessions.Login(LoginInput{Identifier: "Bob", Password: "password123"})
	s.Require().NoError(err)
	s.Equal(user.ID, byName.User.ID)
	s.Equal([]string{models.RoleMember}, byName.Principal.Roles)
	s.Equal(s.clock.Add(time.Hour), byName.Principal.ExpiresAt)

	byEmail, err := s.sessions.Login(LoginInput{Identifier: "BOB@example.com", Password: "password123"})
	s.Require().NoError(err)
	s.NotEqual(byName.Token, byEmail.Token)

	reloaded, err := s.identity.GetUser(user.ID)
	s.Require().NoError(err)
	s.Require().NotNil(reloaded.LastLogin)
	s.Equal(uint64(1), reloaded.Version)
}

func (s *SessionServiceTestSuite) TestLogin_InvalidCredentials() {
	s.seedUser("bob")

	_, err := s.sessions.Login(LoginInput{Identifier: "bob", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.sessions.Login(LoginInput{Identifier: "nobody", Password: "password123"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.sessions.Login(LoginInput{Identifier: "", Password: ""})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *SessionServiceTestSuite) TestLogin_DeactivatedUserFailsWithCorrectPassword() {
	user := s.seedUser("bob")
	_, err := s.identity.Deactivate(s.root(), user.ID, 0)
	s.Require().NoError(err)

	_, err = s.sessions.Login(LoginInput{Identifier: "bob", Password: "password123"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *SessionServiceTestSuite) TestValidate_Lifecycle() {
	user := s.seedUser("bob", models.RoleManager)
	login, err := s.sessions.Login(LoginInput{Identifier: "bob", Password: "password123"})
	s.Require().NoError(err)

	principal, err := s.sessions.Validate(login.Token)
	s.Require().NoError(err)
	s.Equal(user.ID, principal.UserID)
	s.Equal(SessionAuthenticated, s.sessions.State(login.Token))

	s.Require().NoError(s.sessions.Logout(login.Token))
	s.Require().NoError(s.sessions.Logout(login.Token))

	_, err = s.sessions.Validate(login.Token)
	s.ErrorIs(err, ErrRevokedToken)
	s.Equal(SessionRevoked, s.sessions.State(login.Token))
}

func (s *SessionServiceTestSuite) TestValidate_Expired() {
	s.seedUser("bob")
	login, err := s.sessions.Login(LoginInput{Identifier: "bob", Password: "password123"})
	s.Require().NoError(err)

	s.clock = s.clock.Add(time.Hour)
	_, err = s.sessions.Validate(login.Token)
	s.ErrorIs(err, ErrExpiredToken)
	s.Equal(SessionExpired, s.sessions.State(login.Token))
}

func (s *SessionServiceTestSuite) TestValidate_Malformed() {
	s.seedUser("bob")
	login, err := s.sessions.Login(LoginInput{Identifier: "bob", Password: "password123"})
	s.Require().NoError(err)
	id, secret, _ := strings.Cut(login.Token, ".")

	tampered := id + "." + strings.Repeat("0", len(secret))
	for _, token := range []string{
		"",
		"garbage",
		"not-a-uuid." + secret,
		id + ".zz",
		tampered,
		"7b0a1f44-2d55-4c1e-9c59-0e7f1f0f2a11." + secret,
	} {
		_, err := s.sessions.Validate(token)
		s.ErrorIs(err, ErrMalformedToken, token)
		s.Equal(SessionAnonymous, s.sessions.State(token))
	}
}

func (s *SessionServiceTestSuite) TestRoleSnapshotIsBoundAtLogin() {
	user := s.seedUser("bob", models.RoleMember)
	login, err := s.sessions.Login(LoginInput{Identifier: "bob", Password: "password123"})
	s.Require().NoError(err)

	_, err = s.identity.AssignRole(s.root(), user.ID, s.roles[models.RoleAdmin].ID)
	s.Require().NoError(err)

	principal, err := s.sessions.Validate(login.Token)
	s.Require().NoError(err)
	s.Equal([]string{models.RoleMember}, principal.Roles)
}

func (s *SessionServiceTestSuite) TestStoresOnlySecretHash() {
	s.seedUser("bob")
	login, err := s.sessions.Login(LoginInput{Identifier: "bob", Password: "password123"})
	s.Require().NoError(err)
	id, secret, _ := strings.Cut(login.Token, ".")

	var session models.Session
	s.Require().NoError(s.db.Where("id = ?", id).First(&session).Error)
	s.NotEqual(secret, session.TokenHash)
	s.Len(session.TokenHash, 64)
}
