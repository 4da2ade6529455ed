package facade

import (
	"context"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/policy"
	"github.com/yukikurage/projectdesk/internal/services"
	"github.com/yukikurage/projectdesk/internal/utils"
)

type routeKey struct {
	entity models.EntityType
	op     Operation
}

type handlerFunc func(ctx context.Context, actor services.Actor, req Request) (*Result, error)

// route binds an operation to the policy grant it needs.
type route struct {
	entity  models.EntityType
	action  policy.Action
	needsID bool
	fn      handlerFunc
}

func data(v any, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return &Result{Data: v}, nil
}

func page[T any](items []T, total int64, params utils.PaginationParams, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	pagination := params.Response(total)
	return &Result{Data: items, Pagination: &pagination}, nil
}

func done(err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// Operations lists the supported operations per entity type.
func (f *Facade) Operations() map[models.EntityType][]Operation {
	ops := map[models.EntityType][]Operation{}
	for key := range f.routes {
		ops[key.entity] = append(ops[key.entity], key.op)
	}
	return ops
}

func (f *Facade) registry() map[routeKey]route {
	routes := map[routeKey]route{}
	add := func(entity models.EntityType, op Operation, grant models.EntityType, action policy.Action, needsID bool, fn handlerFunc) {
		routes[routeKey{entity: entity, op: op}] = route{entity: grant, action: action, needsID: needsID, fn: fn}
	}

	f.userRoutes(add)
	f.roleRoutes(add)
	f.clientRoutes(add)
	f.projectRoutes(add)
	f.taskRoutes(add)
	f.commentRoutes(add)
	f.attachmentRoutes(add)
	f.auditRoutes(add)
	return routes
}

type adder func(entity models.EntityType, op Operation, grant models.EntityType, action policy.Action, needsID bool, fn handlerFunc)

func (f *Facade) userRoutes(add adder) {
	const e = models.EntityUser
	identity := f.svc.Identity

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p userCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(identity.CreateUser(actor, services.CreateUserInput{
			Username:  p.Username,
			Email:     p.Email,
			Password:  p.Password,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(identity.GetUser(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		activeOnly, err := queryBool(req.Query, "active_only")
		if err != nil {
			return nil, err
		}
		roleID, err := queryUint(req.Query, "role_id")
		if err != nil {
			return nil, err
		}
		params := utils.GetPaginationParams(req.Query)
		users, total, err := identity.ListUsers(services.ListUsersInput{
			ActiveOnly: activeOnly,
			RoleID:     roleID,
			Page:       params.RepositoryPage(),
		})
		return page(users, total, params, err)
	})
	add(e, OpUpdate, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p userUpdatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(identity.UpdateUser(actor, *req.EntityID, services.UpdateUserInput{
			Version:   p.Version,
			Email:     p.Email,
			Password:  p.Password,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		}))
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return done(identity.DeleteUser(actor, *req.EntityID, version))
	})
	add(e, OpDeactivate, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return data(identity.Deactivate(actor, *req.EntityID, version))
	})
	add(e, OpActivate, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return data(identity.Activate(actor, *req.EntityID, version))
	})
	add(e, OpAssignRole, models.EntityUserRole, policy.ActionCreate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p roleAssignmentPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		if p.RoleID == 0 {
			return nil, &services.ValidationError{Field: "role_id", Reason: "is required"}
		}
		return data(identity.AssignRole(actor, *req.EntityID, p.RoleID))
	})
	add(e, OpRevokeRole, models.EntityUserRole, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p roleAssignmentPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		if p.RoleID == 0 {
			return nil, &services.ValidationError{Field: "role_id", Reason: "is required"}
		}
		return done(identity.RevokeRole(actor, *req.EntityID, p.RoleID))
	})
}

func (f *Facade) roleRoutes(add adder) {
	const e = models.EntityRole
	identity := f.svc.Identity

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p roleCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(identity.CreateRole(actor, services.CreateRoleInput{Name: p.Name, Description: p.Description}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(identity.GetRole(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		params := utils.GetPaginationParams(req.Query)
		roles, total, err := identity.ListRoles(params.RepositoryPage())
		return page(roles, total, params, err)
	})
	add(e, OpUpdate, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p roleUpdatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(identity.UpdateRole(actor, *req.EntityID, services.UpdateRoleInput{
			Version:     p.Version,
			Name:        p.Name,
			Description: p.Description,
		}))
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return done(identity.DeleteRole(actor, *req.EntityID, version))
	})
}

func (f *Facade) clientRoutes(add adder) {
	const e = models.EntityClient
	clients := f.svc.Clients

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p clientCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(clients.Create(actor, services.CreateClientInput{
			Name:         p.Name,
			ContactName:  p.ContactName,
			ContactEmail: p.ContactEmail,
			ContactPhone: p.ContactPhone,
			Notes:        p.Notes,
		}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(clients.Get(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		params := utils.GetPaginationParams(req.Query)
		items, total, err := clients.List(params.RepositoryPage())
		return page(items, total, params, err)
	})
	add(e, OpUpdate, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p clientUpdatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(clients.Update(actor, *req.EntityID, services.UpdateClientInput{
			Version:      p.Version,
			Name:         p.Name,
			ContactName:  p.ContactName,
			ContactEmail: p.ContactEmail,
			ContactPhone: p.ContactPhone,
			Notes:        p.Notes,
		}))
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return done(clients.Delete(actor, *req.EntityID, version))
	})
}

func (f *Facade) projectRoutes(add adder) {
	const e = models.EntityProject
	projects := f.svc.Projects

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p projectCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(projects.Create(actor, services.CreateProjectInput{
			Name:        p.Name,
			Description: p.Description,
			StartDate:   p.StartDate.value(),
			EndDate:     p.EndDate.value(),
			ClientID:    p.ClientID,
			ManagerID:   p.ManagerID,
			Status:      p.Status,
		}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(projects.Get(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		clientID, err := queryUint(req.Query, "client_id")
		if err != nil {
			return nil, err
		}
		managerID, err := queryUint(req.Query, "manager_id")
		if err != nil {
			return nil, err
		}
		input := services.ListProjectsInput{ClientID: clientID, ManagerID: managerID}
		if status := queryString(req.Query, "status"); status != nil {
			s := models.ProjectStatus(*status)
			input.Status = &s
		}
		params := utils.GetPaginationParams(req.Query)
		input.Page = params.RepositoryPage()
		items, total, err := projects.List(input)
		return page(items, total, params, err)
	})
	add(e, OpUpdate, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p projectUpdatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(projects.Update(actor, *req.EntityID, services.UpdateProjectInput{
			Version:     p.Version,
			Name:        p.Name,
			Description: p.Description,
			StartDate:   p.StartDate.timePtr(),
			EndDate:     p.EndDate.timePtr(),
			ClientID:    p.ClientID,
			ManagerID:   p.ManagerID,
			Status:      p.Status,
		}))
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return done(projects.Delete(actor, *req.EntityID, version))
	})
	add(e, OpSuggestTasks, models.EntityTask, policy.ActionCreate, true, func(ctx context.Context, _ services.Actor, req Request) (*Result, error) {
		if f.svc.Suggestions == nil {
			return nil, services.ErrSuggestionsUnavailable
		}
		var p suggestTasksPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(f.svc.Suggestions.SuggestTasks(ctx, *req.EntityID, services.SuggestTasksInput{
			Hint:  p.Hint,
			Limit: p.Limit,
		}))
	})
}

func (f *Facade) taskRoutes(add adder) {
	const e = models.EntityTask
	tasks := f.svc.Tasks

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p taskCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(tasks.CreateTask(actor, services.CreateTaskInput{
			Title:       p.Title,
			Description: p.Description,
			ProjectID:   p.ProjectID,
			AssigneeID:  p.AssigneeID,
			Priority:    p.Priority,
			DueDate:     p.DueDate.timePtr(),
		}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(tasks.GetTask(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		projectID, err := queryUint(req.Query, "project_id")
		if err != nil {
			return nil, err
		}
		assigneeID, err := queryUint(req.Query, "assignee_id")
		if err != nil {
			return nil, err
		}
		dueToday, err := queryBool(req.Query, "due_today")
		if err != nil {
			return nil, err
		}
		input := services.ListTasksInput{
			ProjectID:     projectID,
			AssigneeID:    assigneeID,
			DueToday:      dueToday,
			SortByDueDate: req.Query["sort"] == "due_date",
		}
		if status := queryString(req.Query, "status"); status != nil {
			s := models.TaskStatus(*status)
			input.Status = &s
		}
		params := utils.GetPaginationParams(req.Query)
		input.Page = params.RepositoryPage()
		items, total, err := tasks.ListTasks(input)
		return page(items, total, params, err)
	})
	add(e, OpUpdate, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p taskUpdatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(tasks.UpdateTask(actor, *req.EntityID, services.UpdateTaskInput{
			Version:       p.Version,
			Title:         p.Title,
			Description:   p.Description,
			ProjectID:     p.ProjectID,
			AssigneeID:    p.AssigneeID,
			ClearAssignee: p.ClearAssignee,
			Priority:      p.Priority,
			Status:        p.Status,
			DueDate:       p.DueDate.timePtr(),
			ClearDueDate:  p.ClearDueDate,
		}))
	})
	add(e, OpTransition, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p taskTransitionPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(tasks.TransitionTask(actor, *req.EntityID, services.TransitionTaskInput{
			Version: p.Version,
			Status:  p.Status,
		}))
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return done(tasks.DeleteTask(actor, *req.EntityID, version))
	})
}

// requiredTaskID reads the task a comment or attachment list is scoped to.
func requiredTaskID(query map[string]string) (uint64, error) {
	taskID, err := queryUint(query, "task_id")
	if err != nil {
		return 0, err
	}
	if taskID == nil {
		return 0, &services.ValidationError{Field: "task_id", Reason: "is required"}
	}
	return *taskID, nil
}

func (f *Facade) commentRoutes(add adder) {
	const e = models.EntityComment
	comments := f.svc.Comments

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p commentCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(comments.Create(actor, services.CreateCommentInput{TaskID: p.TaskID, Content: p.Content}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(comments.Get(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		taskID, err := requiredTaskID(req.Query)
		if err != nil {
			return nil, err
		}
		params := utils.GetPaginationParams(req.Query)
		items, total, err := comments.ListByTask(taskID, params.RepositoryPage())
		return page(items, total, params, err)
	})
	add(e, OpUpdate, e, policy.ActionUpdate, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p commentUpdatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(comments.Update(actor, *req.EntityID, services.UpdateCommentInput{Version: p.Version, Content: p.Content}))
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		version, err := queryVersion(req.Query)
		if err != nil {
			return nil, err
		}
		return done(comments.Delete(actor, *req.EntityID, version))
	})
}

func (f *Facade) attachmentRoutes(add adder) {
	const e = models.EntityAttachment
	attachments := f.svc.Attachments

	add(e, OpCreate, e, policy.ActionCreate, false, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		var p attachmentCreatePayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return data(attachments.Create(actor, services.CreateAttachmentInput{
			TaskID:   p.TaskID,
			FileName: p.FileName,
			FileType: p.FileType,
			FilePath: p.FilePath,
			FileSize: p.FileSize,
		}))
	})
	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(attachments.Get(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		taskID, err := requiredTaskID(req.Query)
		if err != nil {
			return nil, err
		}
		params := utils.GetPaginationParams(req.Query)
		items, total, err := attachments.ListByTask(taskID, params.RepositoryPage())
		return page(items, total, params, err)
	})
	add(e, OpDelete, e, policy.ActionDelete, true, func(_ context.Context, actor services.Actor, req Request) (*Result, error) {
		return done(attachments.Delete(actor, *req.EntityID))
	})
}

func (f *Facade) auditRoutes(add adder) {
	const e = models.EntityAuditLog
	audit := f.svc.Audit

	add(e, OpRead, e, policy.ActionRead, true, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		return data(audit.Get(*req.EntityID))
	})
	add(e, OpList, e, policy.ActionRead, false, func(_ context.Context, _ services.Actor, req Request) (*Result, error) {
		entityID, err := queryUint(req.Query, "entity_id")
		if err != nil {
			return nil, err
		}
		userID, err := queryUint(req.Query, "user_id")
		if err != nil {
			return nil, err
		}
		input := services.ListAuditInput{EntityID: entityID, UserID: userID}
		if entity := queryString(req.Query, "entity_type"); entity != nil {
			t := models.EntityType(*entity)
			input.EntityType = &t
		}
		params := utils.GetPaginationParams(req.Query)
		input.Page = params.RepositoryPage()
		items, total, err := audit.List(input)
		return page(items, total, params, err)
	})
}
