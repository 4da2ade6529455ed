package models

// EntityType names an entity of the domain graph for authorization and auditing.
type EntityType string

const (
	EntityUser       EntityType = "User"
	EntityRole       EntityType = "Role"
	EntityUserRole   EntityType = "UserRole"
	EntityClient     EntityType = "Client"
	EntityProject    EntityType = "Project"
	EntityTask       EntityType = "Task"
	EntityComment    EntityType = "Comment"
	EntityAttachment EntityType = "Attachment"
	EntityAuditLog   EntityType = "AuditLog"
)

// EntityTypes lists every entity type in a stable order.
var EntityTypes = []EntityType{
	EntityUser,
	EntityRole,
	EntityUserRole,
	EntityClient,
	EntityProject,
	EntityTask,
	EntityComment,
	EntityAttachment,
	EntityAuditLog,
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	for _, e := range EntityTypes {
		if e == t {
			return true
		}
	}
	return false
}
