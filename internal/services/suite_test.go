package services

import (
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/policy"
	"github.com/yukikurage/projectdesk/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// serviceSuite wires every service to a fresh in-memory database
type serviceSuite struct {
	suite.Suite
	db    *gorm.DB
	store *repository.Store
	clock time.Time

	audit       *AuditService
	identity    *IdentityService
	sessions    *SessionService
	clients     *ClientService
	projects    *ProjectService
	tasks       *TaskService
	comments    *CommentService
	attachments *AttachmentService

	roles map[string]*models.Role
	admin *models.User
}

func (s *serviceSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return s.clock },
	})
	s.Require().NoError(err)

	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(s.db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.Client{},
		&models.Project{},
		&models.Task{},
		&models.Comment{},
		&models.Attachment{},
		&models.AuditLog{},
		&models.Session{},
	))

	s.clock = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return s.clock }

	s.store = repository.NewStore(s.db)
	s.audit = NewAuditService(s.store)
	s.audit.now = now
	s.identity = NewIdentityService(s.store, s.audit)
	s.sessions = NewSessionService(s.store, time.Hour)
	s.sessions.now = now
	s.clients = NewClientService(s.store, s.audit)
	s.projects = NewProjectService(s.store, s.audit)
	s.tasks = NewTaskService(s.store, s.audit)
	s.comments = NewCommentService(s.store, s.audit)
	s.attachments = NewAttachmentService(s.store, s.audit)

	s.roles = map[string]*models.Role{}
	for _, name := range []string{models.RoleAdmin, models.RoleManager, models.RoleMember} {
		role := &models.Role{Name: name, Version: 1}
		s.Require().NoError(s.db.Create(role).Error)
		s.roles[name] = role
	}

	s.admin = s.seedUser("root", models.RoleAdmin)
}

func (s *serviceSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

// seedUser inserts an active user with password "password123" holding roles.
// It bypasses the services and writes no audit rows.
func (s *serviceSuite) seedUser(username string, roles ...string) *models.User {
	hashed, err := hashPassword("password123")
	s.Require().NoError(err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
		IsActive:     true,
		Version:      1,
	}
	s.Require().NoError(s.db.Create(user).Error)
	for _, name := range roles {
		s.Require().NoError(s.db.Create(&models.UserRole{
			UserID:     user.ID,
			RoleID:     s.roles[name].ID,
			AssignedAt: s.clock,
		}).Error)
	}
	return user
}

// actor builds an actor for user with the scope the default policy grants
// its roles for action on entity.
func (s *serviceSuite) actor(user *models.User, entity models.EntityType, action policy.Action) Actor {
	roles, err := s.store.Roles.NamesForUser(user.ID)
	s.Require().NoError(err)
	return Actor{
		UserID:    user.ID,
		Roles:     roles,
		IPAddress: "127.0.0.1",
		Scope:     policy.Default().Scope(roles, entity, action),
	}
}

// root is an unrestricted actor
func (s *serviceSuite) root() Actor {
	return Actor{UserID: s.admin.ID, Roles: []string{models.RoleAdmin}, IPAddress: "127.0.0.1", Scope: policy.ScopeAny}
}

func (s *serviceSuite) auditCount(entity models.EntityType, id uint64) int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", entity, id).
		Count(&count).Error)
	return count
}

func (s *serviceSuite) lastAudit() models.AuditLog {
	var entry models.AuditLog
	s.Require().NoError(s.db.Order("id DESC").First(&entry).Error)
	return entry
}

func (s *serviceSuite) newClient(name string) *models.Client {
	client, err := s.clients.Create(s.root(), CreateClientInput{Name: name})
	s.Require().NoError(err)
	return client
}

func (s *serviceSuite) newProject(manager *models.User) *models.Project {
	client := s.newClient("Acme")
	project, err := s.projects.Create(s.root(), CreateProjectInput{
		Name:      "Website",
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 3, 1),
		ClientID:  client.ID,
		ManagerID: manager.ID,
	})
	s.Require().NoError(err)
	return project
}

func (s *serviceSuite) newTask(project *models.Project, assignee *models.User) *models.Task {
	input := CreateTaskInput{Title: "Draft homepage", ProjectID: project.ID}
	if assignee != nil {
		input.AssigneeID = &assignee.ID
	}
	task, err := s.tasks.CreateTask(s.root(), input)
	s.Require().NoError(err)
	return task
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var zeroPage repository.Page
