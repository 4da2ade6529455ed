package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/policy"
)

type DomainServiceTestSuite struct {
	serviceSuite
}

func TestDomainServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DomainServiceTestSuite))
}

func (s *DomainServiceTestSuite) requireField(err error, field string) {
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal(field, verr.Field)
}

func (s *DomainServiceTestSuite) TestClient_DeleteRestrictedByProjects() {
	manager := s.seedUser("mia", models.RoleManager)
	project := s.newProject(manager)

	err := s.clients.Delete(s.root(), project.ClientID, 0)
	s.requireField(err, "id")

	s.Require().NoError(s.projects.Delete(s.root(), project.ID, project.Version))
	s.Require().NoError(s.clients.Delete(s.root(), project.ClientID, 0))

	_, err = s.clients.Get(project.ClientID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DomainServiceTestSuite) TestClient_UpdateRequiresName() {
	client := s.newClient("Acme")
	empty := "  "

	_, err := s.clients.Update(s.root(), client.ID, UpdateClientInput{Version: client.Version, Name: &empty})
	s.requireField(err, "name")

	_, err = s.clients.Update(s.root(), client.ID, UpdateClientInput{Name: &empty})
	s.requireField(err, "version")
}

func (s *DomainServiceTestSuite) TestProject_EndDateBeforeStart() {
	manager := s.seedUser("mia", models.RoleManager)
	client := s.newClient("Acme")

	_, err := s.projects.Create(s.root(), CreateProjectInput{
		Name:      "Backwards",
		StartDate: date(2024, 1, 1),
		EndDate:   date(2023, 12, 31),
		ClientID:  client.ID,
		ManagerID: manager.ID,
	})
	s.requireField(err, "endDate")

	project := s.newProject(manager)
	end := date(2023, 12, 31)
	_, err = s.projects.Update(s.root(), project.ID, UpdateProjectInput{Version: project.Version, EndDate: &end})
	s.requireField(err, "endDate")

	reloaded, err := s.projects.Get(project.ID)
	s.Require().NoError(err)
	s.False(reloaded.EndDate.Before(reloaded.StartDate))
	s.Equal(int64(1), s.auditCount(models.EntityProject, project.ID))
}

func (s *DomainServiceTestSuite) TestProject_References() {
	manager := s.seedUser("mia", models.RoleManager)
	client := s.newClient("Acme")
	base := CreateProjectInput{
		Name:      "Website",
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 3, 1),
		ClientID:  client.ID,
		ManagerID: manager.ID,
	}

	missingClient := base
	missingClient.ClientID = 9999
	_, err := s.projects.Create(s.root(), missingClient)
	s.requireField(err, "clientId")

	_, err = s.identity.Deactivate(s.root(), manager.ID, 0)
	s.Require().NoError(err)
	_, err = s.projects.Create(s.root(), base)
	s.requireField(err, "managerId")

	badStatus := base
	badStatus.Status = "Archived"
	_, err = s.projects.Create(s.root(), badStatus)
	s.requireField(err, "status")
}

func (s *DomainServiceTestSuite) TestProject_ManagerOwnsOnlyOwnProjects() {
	mia := s.seedUser("mia", models.RoleManager)
	mo := s.seedUser("mo", models.RoleManager)
	mine := s.newProject(mia)
	theirs := s.newProject(mo)
	actor := s.actor(mia, models.EntityProject, policy.ActionUpdate)

	name := "Renamed"
	_, err := s.projects.Update(actor, mine.ID, UpdateProjectInput{Version: mine.Version, Name: &name})
	s.NoError(err)

	_, err = s.projects.Update(actor, theirs.ID, UpdateProjectInput{Version: theirs.Version, Name: &name})
	s.ErrorIs(err, ErrForbidden)
}

func (s *DomainServiceTestSuite) TestProject_DeleteRestrictedByTasks() {
	manager := s.seedUser("mia", models.RoleManager)
	project := s.newProject(manager)
	task := s.newTask(project, nil)

	err := s.projects.Delete(s.root(), project.ID, 0)
	s.requireField(err, "id")

	s.Require().NoError(s.tasks.DeleteTask(s.root(), task.ID, 0))
	s.NoError(s.projects.Delete(s.root(), project.ID, 0))
}

func (s *DomainServiceTestSuite) TestTask_DefaultsAndLateDueDate() {
	manager := s.seedUser("mia", models.RoleManager)
	project := s.newProject(manager)
	late := date(2024, 6, 1)

	task, err := s.tasks.CreateTask(s.root(), CreateTaskInput{Title: "Launch", ProjectID: project.ID, DueDate: &late})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusPending, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.Nil(task.AssigneeID)
}

func (s *DomainServiceTestSuite) TestTask_TerminalProjectRejectsTasks() {
	manager := s.seedUser("mia", models.RoleManager)
	project := s.newProject(manager)
	other := s.newProject(manager)
	task := s.newTask(project, nil)

	completed := models.ProjectStatusCompleted
	_, err := s.projects.Update(s.root(), other.ID, UpdateProjectInput{Version: other.Version, Status: &completed})
	s.Require().NoError(err)

	_, err = s.tasks.CreateTask(s.root(), CreateTaskInput{Title: "Late", ProjectID: other.ID})
	s.requireField(err, "projectId")

	_, err = s.tasks.UpdateTask(s.root(), task.ID, UpdateTaskInput{Version: task.Version, ProjectID: &other.ID})
	s.requireField(err, "projectId")
}

func (s *DomainServiceTestSuite) TestTask_TransitionWorkflow() {
	manager := s.seedUser("mia", models.RoleManager)
	task := s.newTask(s.newProject(manager), nil)

	_, err := s.tasks.TransitionTask(s.root(), task.ID, TransitionTaskInput{Version: task.Version, Status: models.TaskStatusCompleted})
	s.requireField(err, "status")

	_, err = s.tasks.TransitionTask(s.root(), task.ID, TransitionTaskInput{Version: task.Version, Status: models.TaskStatusPending})
	s.requireField(err, "status")

	steps := []models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusBlocked, models.TaskStatusInProgress, models.TaskStatusCompleted}
	version := task.Version
	for _, next := range steps {
		moved, err := s.tasks.TransitionTask(s.root(), task.ID, TransitionTaskInput{Version: version, Status: next})
		s.Require().NoError(err, "to %s", next)
		s.Equal(next, moved.Status)
		version = moved.Version
	}

	_, err = s.tasks.TransitionTask(s.root(), task.ID, TransitionTaskInput{Version: version, Status: models.TaskStatusCancelled})
	s.requireField(err, "status")
	s.Equal(int64(1+len(steps)), s.auditCount(models.EntityTask, task.ID))
}

func (s *DomainServiceTestSuite) TestTask_StaleVersionLosesAndFirstWritePersists() {
	manager := s.seedUser("mia", models.RoleManager)
	task := s.newTask(s.newProject(manager), nil)
	readVersion := task.Version

	first := "First writer"
	updated, err := s.tasks.UpdateTask(s.root(), task.ID, UpdateTaskInput{Version: readVersion, Title: &first})
	s.Require().NoError(err)

	second := "Second writer"
	_, err = s.tasks.UpdateTask(s.root(), task.ID, UpdateTaskInput{Version: readVersion, Title: &second})
	s.ErrorIs(err, ErrConcurrentModification)

	reloaded, err := s.tasks.GetTask(task.ID)
	s.Require().NoError(err)
	s.Equal("First writer", reloaded.Title)
	s.Equal(updated.Version, reloaded.Version)
	s.Equal(int64(2), s.auditCount(models.EntityTask, task.ID))
}

func (s *DomainServiceTestSuite) TestTask_ReassignKeepsStatus() {
	manager := s.seedUser("mia", models.RoleManager)
	devon := s.seedUser("devon", models.RoleMember)
	task := s.newTask(s.newProject(manager), nil)

	moved, err := s.tasks.TransitionTask(s.root(), task.ID, TransitionTaskInput{Version: task.Version, Status: models.TaskStatusInProgress})
	s.Require().NoError(err)

	reassigned, err := s.tasks.UpdateTask(s.root(), task.ID, UpdateTaskInput{Version: moved.Version, AssigneeID: &devon.ID})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, reassigned.Status)
	s.Equal(devon.ID, *reassigned.AssigneeID)
}

func (s *DomainServiceTestSuite) TestTask_MemberUpdatesOnlyAssignedTasks() {
	manager := s.seedUser("mia", models.RoleManager)
	devon := s.seedUser("devon", models.RoleMember)
	project := s.newProject(manager)
	mine := s.newTask(project, devon)
	other := s.newTask(project, nil)
	actor := s.actor(devon, models.EntityTask, policy.ActionUpdate)

	title := "Mine now"
	_, err := s.tasks.UpdateTask(actor, mine.ID, UpdateTaskInput{Version: mine.Version, Title: &title})
	s.NoError(err)

	_, err = s.tasks.UpdateTask(actor, other.ID, UpdateTaskInput{Version: other.Version, Title: &title})
	s.ErrorIs(err, ErrForbidden)
}

func (s *DomainServiceTestSuite) TestTask_DeleteCascadesToCommentsAndAttachments() {
	manager := s.seedUser("mia", models.RoleManager)
	task := s.newTask(s.newProject(manager), nil)

	comment, err := s.comments.Create(s.root(), CreateCommentInput{TaskID: task.ID, Content: "looks good"})
	s.Require().NoError(err)
	attachment, err := s.attachments.Create(s.root(), CreateAttachmentInput{
		TaskID:   task.ID,
		FileName: "mock.png",
		FileType: "image/png",
		FilePath: "s3://bucket/mock.png",
		FileSize: 2048,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.tasks.DeleteTask(s.root(), task.ID, 0))

	_, err = s.comments.Get(comment.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.attachments.Get(attachment.ID)
	s.ErrorIs(err, ErrNotFound)
	s.Equal(int64(2), s.auditCount(models.EntityTask, task.ID))
}

func (s *DomainServiceTestSuite) TestComment_AuthorOnly() {
	manager := s.seedUser("mia", models.RoleManager)
	devon := s.seedUser("devon", models.RoleMember)
	erin := s.seedUser("erin", models.RoleMember)
	task := s.newTask(s.newProject(manager), nil)

	comment, err := s.comments.Create(s.actor(devon, models.EntityComment, policy.ActionCreate), CreateCommentInput{TaskID: task.ID, Content: "first!"})
	s.Require().NoError(err)
	s.Equal(devon.ID, comment.UserID)

	_, err = s.comments.Update(s.actor(erin, models.EntityComment, policy.ActionUpdate), comment.ID, UpdateCommentInput{Version: comment.Version, Content: "hijacked"})
	s.ErrorIs(err, ErrForbidden)

	s.clock = s.clock.Add(time.Minute)
	edited, err := s.comments.Update(s.actor(devon, models.EntityComment, policy.ActionUpdate), comment.ID, UpdateCommentInput{Version: comment.Version, Content: "edited"})
	s.Require().NoError(err)
	s.True(edited.UpdatedAt.After(edited.CreatedAt))
	s.True(s.clock.Equal(edited.UpdatedAt))

	err = s.comments.Delete(s.actor(erin, models.EntityComment, policy.ActionDelete), comment.ID, 0)
	s.ErrorIs(err, ErrForbidden)

	comments, total, err := s.comments.ListByTask(task.ID, zeroPage)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("edited", comments[0].Content)

	_, err = s.comments.Create(s.root(), CreateCommentInput{TaskID: task.ID, Content: " "})
	s.requireField(err, "content")
	_, err = s.comments.Create(s.root(), CreateCommentInput{TaskID: 9999, Content: "hello"})
	s.requireField(err, "taskId")
}

func (s *DomainServiceTestSuite) TestAttachment_Validation() {
	manager := s.seedUser("mia", models.RoleManager)
	task := s.newTask(s.newProject(manager), nil)

	_, err := s.attachments.Create(s.root(), CreateAttachmentInput{TaskID: task.ID, FileName: "a.txt", FilePath: "/a", FileSize: -1})
	s.requireField(err, "fileSize")

	_, err = s.attachments.Create(s.root(), CreateAttachmentInput{TaskID: task.ID, FileName: "a.txt"})
	s.requireField(err, "filePath")

	attachment, err := s.attachments.Create(s.root(), CreateAttachmentInput{TaskID: task.ID, FileName: "a.txt", FilePath: "/a", FileSize: 0})
	s.Require().NoError(err)
	s.Equal(s.clock, attachment.UploadedAt)

	raw, err := json.Marshal(attachment)
	s.Require().NoError(err)
	s.NotContains(string(raw), "/a\"")

	var recorded map[string]any
	s.Require().NoError(json.Unmarshal(s.lastAudit().NewValues, &recorded))
	s.Equal("/a", recorded["file_path"])
	s.Equal(attachment.FileName, recorded["file_name"])
}

func (s *DomainServiceTestSuite) TestAudit_OneRowPerMutationWithRoundTrip() {
	manager := s.seedUser("mia", models.RoleManager)
	project := s.newProject(manager)
	before := s.lastAudit().ID

	desc := "Public site"
	updated, err := s.projects.Update(s.root(), project.ID, UpdateProjectInput{Version: project.Version, Description: &desc})
	s.Require().NoError(err)

	entries, total, err := s.audit.List(ListAuditInput{})
	s.Require().NoError(err)
	s.Equal(int64(len(entries)), total)

	entry := s.lastAudit()
	s.Equal(before+1, entry.ID)
	s.Equal(models.AuditActionUpdate, entry.Action)
	s.Equal(s.admin.ID, entry.UserID)
	s.Equal("127.0.0.1", entry.IPAddress)
	s.True(s.clock.Equal(entry.Timestamp))

	var decoded models.Project
	s.Require().NoError(json.Unmarshal(entry.NewValues, &decoded))
	s.Equal(updated.ID, decoded.ID)
	s.Equal("Public site", decoded.Description)
	s.Equal(updated.Version, decoded.Version)
	s.True(updated.EndDate.Equal(decoded.EndDate))
	s.True(entry.Timestamp.Equal(decoded.UpdatedAt))
	s.True(s.clock.Equal(decoded.CreatedAt))

	var previous models.Project
	s.Require().NoError(json.Unmarshal(entry.OldValues, &previous))
	s.Equal("", previous.Description)
	s.Equal(project.Version, previous.Version)
}

func (s *DomainServiceTestSuite) TestAudit_ListFilters() {
	manager := s.seedUser("mia", models.RoleManager)
	project := s.newProject(manager)

	entity := models.EntityProject
	entries, total, err := s.audit.List(ListAuditInput{EntityType: &entity, EntityID: &project.ID})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(models.AuditActionCreate, entries[0].Action)

	bogus := models.EntityType("Invoice")
	_, _, err = s.audit.List(ListAuditInput{EntityType: &bogus})
	s.requireField(err, "entityType")

	_, err = s.audit.Get(entries[0].ID)
	s.NoError(err)
	_, err = s.audit.Get(9999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *DomainServiceTestSuite) TestScenario_AliceManagesAProject() {
	alice, err := s.identity.CreateUser(s.root(), CreateUserInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "correctPw",
	})
	s.Require().NoError(err)

	_, err = s.identity.AssignRole(s.root(), alice.ID, s.roles[models.RoleManager].ID)
	s.Require().NoError(err)

	login, err := s.sessions.Login(LoginInput{Identifier: "alice", Password: "correctPw"})
	s.Require().NoError(err)
	principal, err := s.sessions.Validate(login.Token)
	s.Require().NoError(err)
	s.Equal(alice.ID, principal.UserID)
	s.Equal([]string{models.RoleManager}, principal.Roles)

	actor := Actor{
		UserID: principal.UserID,
		Roles:  principal.Roles,
		Scope:  policy.Default().Scope(principal.Roles, models.EntityProject, policy.ActionCreate),
	}
	client := s.newClient("Acme")
	project, err := s.projects.Create(actor, CreateProjectInput{
		Name:      "Q1 launch",
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 3, 1),
		ClientID:  client.ID,
	})
	s.Require().NoError(err)
	s.Equal(alice.ID, project.ManagerID)

	actor.Scope = policy.Default().Scope(principal.Roles, models.EntityProject, policy.ActionUpdate)
	end := date(2023, 12, 31)
	_, err = s.projects.Update(actor, project.ID, UpdateProjectInput{Version: project.Version, EndDate: &end})
	s.requireField(err, "endDate")

}
