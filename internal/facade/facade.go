// Package facade is the single entry point for entity operations. Every
// request is resolved to a caller, authorized against the role policy and
// only then validated and applied.
package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/policy"
	"github.com/yukikurage/projectdesk/internal/services"
	"github.com/yukikurage/projectdesk/internal/utils"
)

type Operation string

const (
	OpCreate       Operation = "create"
	OpRead         Operation = "read"
	OpList         Operation = "list"
	OpUpdate       Operation = "update"
	OpDelete       Operation = "delete"
	OpTransition   Operation = "transition"
	OpAssignRole   Operation = "assign_role"
	OpRevokeRole   Operation = "revoke_role"
	OpDeactivate   Operation = "deactivate"
	OpActivate     Operation = "activate"
	OpSuggestTasks Operation = "suggest_tasks"
)

// Request is one inbound operation on an entity.
type Request struct {
	Operation    Operation
	EntityType   models.EntityType
	EntityID     *uint64
	// RawEntityID is an unparsed id from the transport. It is parsed only
	// after the caller is authorized and is ignored when EntityID is set.
	RawEntityID  string
	Payload      json.RawMessage
	Query        map[string]string
	SessionToken string
	CallerIP     string
	RequestID    string
}

// Result carries the outcome of an operation. Pagination is set for lists.
type Result struct {
	Data       any
	Pagination *utils.PaginationResponse
}

// Authenticator owns the session lifecycle the facade resolves callers with.
type Authenticator interface {
	Login(input services.LoginInput) (*services.LoginResult, error)
	Validate(token string) (*services.Principal, error)
	Logout(token string) error
	State(token string) services.SessionState
}

// Services are the domain services the facade dispatches to.
type Services struct {
	Identity    *services.IdentityService
	Clients     *services.ClientService
	Projects    *services.ProjectService
	Tasks       *services.TaskService
	Comments    *services.CommentService
	Attachments *services.AttachmentService
	Audit       *services.AuditService
	Suggestions *services.SuggestionService
}

// Facade dispatches requests to the domain services.
type Facade struct {
	auth   Authenticator
	policy *policy.Policy
	svc    Services
	routes map[routeKey]route
}

// New creates a Facade.
func New(auth Authenticator, pol *policy.Policy, svc Services) *Facade {
	f := &Facade{
		auth:   auth,
		policy: pol,
		svc:    svc,
	}
	f.routes = f.registry()
	return f
}

// Authenticator returns the session lifecycle backing the facade.
func (f *Facade) Authenticator() Authenticator {
	return f.auth
}

// Principal resolves a session token. An empty or unusable token yields an
// error wrapping ErrUnauthenticated and, when there was a token, its cause.
func (f *Facade) Principal(token string) (*services.Principal, error) {
	if token == "" {
		return nil, services.ErrUnauthenticated
	}
	principal, err := f.auth.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrUnauthenticated, err)
	}
	return principal, nil
}

// Execute runs req. The order is fixed: caller, authorization, validation,
// mutation and audit. Nothing in the request besides the token is looked at
// before the caller is resolved, and no payload before it is authorized.
func (f *Facade) Execute(ctx context.Context, req Request) (*Result, error) {
	principal, err := f.Principal(req.SessionToken)
	if err != nil {
		return nil, err
	}

	rt, ok := f.routes[routeKey{entity: req.EntityType, op: req.Operation}]
	if !ok {
		return nil, &services.ValidationError{
			Field:  "operation",
			Reason: fmt.Sprintf("%s is not supported on %s", req.Operation, req.EntityType),
		}
	}

	scope := f.policy.Scope(principal.Roles, rt.entity, rt.action)
	if scope == policy.ScopeNone {
		return nil, fmt.Errorf("%s %s: %w", req.Operation, req.EntityType, services.ErrForbidden)
	}

	if req.EntityID == nil && req.RawEntityID != "" {
		id, err := strconv.ParseUint(req.RawEntityID, 10, 64)
		if err != nil || id == 0 {
			return nil, &services.ValidationError{Field: "id", Reason: "must be a positive integer"}
		}
		req.EntityID = &id
	}
	if rt.needsID && req.EntityID == nil {
		return nil, &services.ValidationError{Field: "id", Reason: "is required"}
	}

	actor := services.Actor{
		UserID:    principal.UserID,
		Roles:     principal.Roles,
		IPAddress: req.CallerIP,
		RequestID: req.RequestID,
		Scope:     scope,
	}
	return rt.fn(ctx, actor, req)
}
