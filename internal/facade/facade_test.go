package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/policy"
	"github.com/yukikurage/projectdesk/internal/repository"
	"github.com/yukikurage/projectdesk/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type FacadeTestSuite struct {
	suite.Suite
	db     *gorm.DB
	facade *Facade
	roles  map[string]uint64
}

func TestFacadeTestSuite(t *testing.T) {
	suite.Run(t, new(FacadeTestSuite))
}

func (s *FacadeTestSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(s.db.AutoMigrate(
		&models.User{}, &models.Role{}, &models.UserRole{}, &models.Client{},
		&models.Project{}, &models.Task{}, &models.Comment{}, &models.Attachment{},
		&models.AuditLog{}, &models.Session{},
	))

	s.roles = map[string]uint64{}
	for _, name := range []string{models.RoleAdmin, models.RoleManager, models.RoleMember} {
		role := &models.Role{Name: name, Version: 1}
		s.Require().NoError(s.db.Create(role).Error)
		s.roles[name] = role.ID
	}

	store := repository.NewStore(s.db)
	audit := services.NewAuditService(store)
	s.facade = New(services.NewSessionService(store, 0), policy.Default(), Services{
		Identity:    services.NewIdentityService(store, audit),
		Clients:     services.NewClientService(store, audit),
		Projects:    services.NewProjectService(store, audit),
		Tasks:       services.NewTaskService(store, audit),
		Comments:    services.NewCommentService(store, audit),
		Attachments: services.NewAttachmentService(store, audit),
		Audit:       audit,
		Suggestions: services.NewSuggestionService("", store),
	})
}

func (s *FacadeTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

// login seeds a user holding roles and returns a session token for it.
func (s *FacadeTestSuite) login(username string, roles ...string) (string, *models.User) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	s.Require().NoError(err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
		IsActive:     true,
		Version:      1,
	}
	s.Require().NoError(s.db.Create(user).Error)
	for _, role := range roles {
		s.Require().NoError(s.db.Create(&models.UserRole{UserID: user.ID, RoleID: s.roles[role]}).Error)
	}

	result, err := s.facade.Authenticator().Login(services.LoginInput{Identifier: username, Password: "password123"})
	s.Require().NoError(err)
	return result.Token, user
}

func (s *FacadeTestSuite) exec(token string, entity models.EntityType, op Operation, id *uint64, payload string, query map[string]string) (*Result, error) {
	return s.facade.Execute(context.Background(), Request{
		Operation:    op,
		EntityType:   entity,
		EntityID:     id,
		Payload:      json.RawMessage(payload),
		Query:        query,
		SessionToken: token,
		CallerIP:     "192.0.2.10",
		RequestID:    "req-42",
	})
}

func (s *FacadeTestSuite) requireField(err error, field string) {
	var verr *services.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal(field, verr.Field)
}

func (s *FacadeTestSuite) TestUnauthenticated() {
	_, err := s.exec("", models.EntityClient, OpList, nil, "", nil)
	s.ErrorIs(err, services.ErrUnauthenticated)

	_, err = s.exec("garbage", models.EntityClient, OpList, nil, "", nil)
	s.ErrorIs(err, services.ErrUnauthenticated)
	s.ErrorIs(err, services.ErrMalformedToken)
}

func (s *FacadeTestSuite) TestRevokedTokenIsUnauthenticated() {
	token, _ := s.login("bob", models.RoleMember)
	s.Require().NoError(s.facade.Authenticator().Logout(token))

	_, err := s.exec(token, models.EntityClient, OpList, nil, "", nil)
	s.ErrorIs(err, services.ErrUnauthenticated)
	s.ErrorIs(err, services.ErrRevokedToken)
}

func (s *FacadeTestSuite) TestUnknownOperation() {
	_, err := s.exec("", models.EntityAttachment, OpUpdate, nil, "", nil)
	s.ErrorIs(err, services.ErrUnauthenticated)

	token, _ := s.login("root", models.RoleAdmin)
	_, err = s.exec(token, models.EntityAttachment, OpUpdate, nil, "", nil)
	s.requireField(err, "operation")
}

func (s *FacadeTestSuite) TestRawIDParsedAfterAuthorization() {
	deleteProject := func(token string) error {
		_, err := s.facade.Execute(context.Background(), Request{
			Operation:    OpDelete,
			EntityType:   models.EntityProject,
			RawEntityID:  "abc",
			SessionToken: token,
		})
		return err
	}

	s.ErrorIs(deleteProject(""), services.ErrUnauthenticated)

	memberToken, _ := s.login("devon", models.RoleMember)
	s.ErrorIs(deleteProject(memberToken), services.ErrForbidden)

	adminToken, _ := s.login("root", models.RoleAdmin)
	s.requireField(deleteProject(adminToken), "id")
}

func (s *FacadeTestSuite) TestForbiddenBeforeValidation() {
	token, _ := s.login("bob", models.RoleMember)

	_, err := s.exec(token, models.EntityClient, OpCreate, nil, `{"bogus": true}`, nil)
	s.ErrorIs(err, services.ErrForbidden)

	_, err = s.exec(token, models.EntityAuditLog, OpList, nil, "", nil)
	s.ErrorIs(err, services.ErrForbidden)
}

func (s *FacadeTestSuite) TestPayloadValidation() {
	token, _ := s.login("root", models.RoleAdmin)

	_, err := s.exec(token, models.EntityClient, OpCreate, nil, `{"name": "Acme", "colour": "red"}`, nil)
	s.requireField(err, "payload")

	_, err = s.exec(token, models.EntityClient, OpRead, nil, "", nil)
	s.requireField(err, "id")

	_, err = s.exec(token, models.EntityComment, OpList, nil, "", nil)
	s.requireField(err, "task_id")

	_, err = s.exec(token, models.EntityTask, OpList, nil, "", map[string]string{"project_id": "abc"})
	s.requireField(err, "project_id")
}

func (s *FacadeTestSuite) TestCreateIsAuditedWithCallerContext() {
	token, root := s.login("root", models.RoleAdmin)

	result, err := s.exec(token, models.EntityClient, OpCreate, nil, `{"name": "Acme", "contact_email": "ops@acme.test"}`, nil)
	s.Require().NoError(err)
	client := result.Data.(*models.Client)
	s.Equal("Acme", client.Name)

	var entry models.AuditLog
	s.Require().NoError(s.db.Where("entity_type = ? AND entity_id = ?", models.EntityClient, client.ID).First(&entry).Error)
	s.Equal(root.ID, entry.UserID)
	s.Equal("192.0.2.10", entry.IPAddress)
	s.Equal("req-42", entry.RequestID)
	s.Equal(models.AuditActionCreate, entry.Action)
}

func (s *FacadeTestSuite) TestListPagination() {
	token, _ := s.login("root", models.RoleAdmin)
	for i := 0; i < 3; i++ {
		_, err := s.exec(token, models.EntityClient, OpCreate, nil, fmt.Sprintf(`{"name": "Client %d"}`, i), nil)
		s.Require().NoError(err)
	}

	result, err := s.exec(token, models.EntityClient, OpList, nil, "", map[string]string{"page": "2", "limit": "2"})
	s.Require().NoError(err)
	s.Len(result.Data.([]models.Client), 1)
	s.Require().NotNil(result.Pagination)
	s.Equal(int64(3), result.Pagination.Total)
	s.Equal(2, result.Pagination.Page)
}

func (s *FacadeTestSuite) TestMemberTaskScope() {
	adminToken, _ := s.login("root", models.RoleAdmin)
	_, manager := s.login("mia", models.RoleManager)
	memberToken, member := s.login("devon", models.RoleMember)

	res, err := s.exec(adminToken, models.EntityClient, OpCreate, nil, `{"name": "Acme"}`, nil)
	s.Require().NoError(err)
	clientID := res.Data.(*models.Client).ID

	res, err = s.exec(adminToken, models.EntityProject, OpCreate, nil, fmt.Sprintf(
		`{"name": "Site", "start_date": "2024-01-01", "end_date": "2024-03-01", "client_id": %d, "manager_id": %d}`,
		clientID, manager.ID), nil)
	s.Require().NoError(err)
	projectID := res.Data.(*models.Project).ID

	res, err = s.exec(memberToken, models.EntityTask, OpCreate, nil, fmt.Sprintf(
		`{"title": "Mine", "project_id": %d, "assignee_id": %d, "due_date": "2024-02-01T17:00:00Z"}`, projectID, member.ID), nil)
	s.Require().NoError(err)
	mine := res.Data.(*models.Task)

	res, err = s.exec(memberToken, models.EntityTask, OpCreate, nil, fmt.Sprintf(`{"title": "Unassigned", "project_id": %d}`, projectID), nil)
	s.Require().NoError(err)
	other := res.Data.(*models.Task)

	res, err = s.exec(memberToken, models.EntityTask, OpTransition, &mine.ID, `{"version": 1, "status": "InProgress"}`, nil)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, res.Data.(*models.Task).Status)

	_, err = s.exec(memberToken, models.EntityTask, OpTransition, &other.ID, `{"version": 1, "status": "InProgress"}`, nil)
	s.ErrorIs(err, services.ErrForbidden)

	_, err = s.exec(memberToken, models.EntityTask, OpDelete, &mine.ID, "", nil)
	s.ErrorIs(err, services.ErrForbidden)

	_, err = s.exec(memberToken, models.EntityTask, OpTransition, &mine.ID, `{"version": 1, "status": "Blocked"}`, nil)
	s.ErrorIs(err, services.ErrConcurrentModification)
}

func (s *FacadeTestSuite) TestRoleAssignmentAndDeactivation() {
	adminToken, _ := s.login("root", models.RoleAdmin)
	memberToken, member := s.login("devon", models.RoleMember)

	payload := fmt.Sprintf(`{"role_id": %d}`, s.roles[models.RoleManager])
	_, err := s.exec(adminToken, models.EntityUser, OpAssignRole, &member.ID, payload, nil)
	s.Require().NoError(err)
	_, err = s.exec(adminToken, models.EntityUser, OpAssignRole, &member.ID, payload, nil)
	s.ErrorIs(err, services.ErrAlreadyAssigned)

	_, err = s.exec(memberToken, models.EntityUser, OpDeactivate, &member.ID, "", nil)
	s.ErrorIs(err, services.ErrForbidden)

	res, err := s.exec(adminToken, models.EntityUser, OpDeactivate, &member.ID, "", nil)
	s.Require().NoError(err)
	s.False(res.Data.(*models.User).IsActive)

	_, err = s.exec(memberToken, models.EntityUser, OpRead, &member.ID, "", nil)
	s.ErrorIs(err, services.ErrRevokedToken)

	_, err = s.facade.Authenticator().Login(services.LoginInput{Identifier: "devon", Password: "password123"})
	s.ErrorIs(err, services.ErrInvalidCredentials)
}

func (s *FacadeTestSuite) TestSuggestionsUnavailableWithoutKey() {
	token, _ := s.login("root", models.RoleAdmin)
	id := uint64(1)

	_, err := s.exec(token, models.EntityProject, OpSuggestTasks, &id, `{"hint": "launch"}`, nil)
	s.ErrorIs(err, services.ErrSuggestionsUnavailable)
}

func (s *FacadeTestSuite) TestOperationsCatalogue() {
	ops := s.facade.Operations()
	s.Len(ops[models.EntityUser], 9)
	s.Len(ops[models.EntityTask], 6)
	s.Len(ops[models.EntityAttachment], 4)
	s.Len(ops[models.EntityAuditLog], 2)
	s.NotContains(ops, models.EntityUserRole)
}
