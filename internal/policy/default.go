package policy

import "github.com/yukikurage/projectdesk/internal/models"

func crud(create, read, update, del Scope) map[Action]Scope {
	scopes := map[Action]Scope{}
	for action, scope := range map[Action]Scope{
		ActionCreate: create,
		ActionRead:   read,
		ActionUpdate: update,
		ActionDelete: del,
	} {
		if scope != ScopeNone {
			scopes[action] = scope
		}
	}
	return scopes
}

// Default is the built-in policy for the seeded roles.
func Default() *Policy {
	all := crud(ScopeAny, ScopeAny, ScopeAny, ScopeAny)

	admin := Grants{}
	for _, entity := range models.EntityTypes {
		admin[entity] = all
	}
	admin[models.EntityAuditLog] = crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone)

	manager := Grants{
		models.EntityUser:       crud(ScopeNone, ScopeAny, ScopeOwn, ScopeNone),
		models.EntityRole:       crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone),
		models.EntityUserRole:   crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone),
		models.EntityClient:     crud(ScopeAny, ScopeAny, ScopeAny, ScopeNone),
		models.EntityProject:    crud(ScopeAny, ScopeAny, ScopeOwn, ScopeOwn),
		models.EntityTask:       all,
		models.EntityComment:    crud(ScopeAny, ScopeAny, ScopeOwn, ScopeOwn),
		models.EntityAttachment: crud(ScopeAny, ScopeAny, ScopeNone, ScopeOwn),
	}

	member := Grants{
		models.EntityUser:       crud(ScopeNone, ScopeAny, ScopeOwn, ScopeNone),
		models.EntityRole:       crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone),
		models.EntityUserRole:   crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone),
		models.EntityClient:     crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone),
		models.EntityProject:    crud(ScopeNone, ScopeAny, ScopeNone, ScopeNone),
		models.EntityTask:       crud(ScopeAny, ScopeAny, ScopeOwn, ScopeNone),
		models.EntityComment:    crud(ScopeAny, ScopeAny, ScopeOwn, ScopeOwn),
		models.EntityAttachment: crud(ScopeAny, ScopeAny, ScopeNone, ScopeOwn),
	}

	p, err := New(map[string]Grants{
		models.RoleAdmin:   admin,
		models.RoleManager: manager,
		models.RoleMember:  member,
	})
	if err != nil {
		panic(err)
	}
	return p
}
