// Package policy decides which entity actions each role may perform.
//
// A grant is either "any" (every row) or "own" (only rows the caller owns).
// "own" is meaningful only for update and delete; reads and creates are all
// or nothing.
package policy

import (
	"fmt"
	"os"
	"sort"

	"github.com/yukikurage/projectdesk/internal/models"
	"gopkg.in/yaml.v3"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Scope is the breadth of a grant. The zero value grants nothing.
type Scope string

const (
	ScopeNone Scope = ""
	ScopeOwn  Scope = "own"
	ScopeAny  Scope = "any"
)

func (s Scope) rank() int {
	switch s {
	case ScopeAny:
		return 2
	case ScopeOwn:
		return 1
	}
	return 0
}

// Grants maps entity type to action to scope for one role.
type Grants map[models.EntityType]map[Action]Scope

// Policy maps role names to their grants.
type Policy struct {
	roles map[string]Grants
}

// New builds a Policy after checking every grant.
func New(roles map[string]Grants) (*Policy, error) {
	for role, grants := range roles {
		for entity, actions := range grants {
			if !entity.Valid() {
				return nil, fmt.Errorf("role %q: unknown entity %q", role, entity)
			}
			for action, scope := range actions {
				switch action {
				case ActionCreate, ActionRead:
					if scope != ScopeAny {
						return nil, fmt.Errorf("role %q: %s on %s must be %q", role, action, entity, ScopeAny)
					}
				case ActionUpdate, ActionDelete:
					if scope != ScopeAny && scope != ScopeOwn {
						return nil, fmt.Errorf("role %q: invalid scope %q for %s on %s", role, scope, action, entity)
					}
				default:
					return nil, fmt.Errorf("role %q: unknown action %q", role, action)
				}
			}
		}
	}
	return &Policy{roles: roles}, nil
}

// Scope returns the broadest grant any of roles holds for action on entity.
func (p *Policy) Scope(roles []string, entity models.EntityType, action Action) Scope {
	best := ScopeNone
	for _, role := range roles {
		scope := p.roles[role][entity][action]
		if scope.rank() > best.rank() {
			best = scope
		}
	}
	return best
}

// Roles returns the role names the policy knows, sorted.
func (p *Policy) Roles() []string {
	names := make([]string, 0, len(p.roles))
	for name := range p.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fileFormat struct {
	Roles map[string]map[string]map[string]string `yaml:"roles"`
}

// Load reads a policy from a YAML file of the form
//
//	roles:
//	  Manager:
//	    Project: {create: any, read: any, update: own, delete: own}
func Load(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML policy document.
func Parse(raw []byte) (*Policy, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("parse policy: no roles defined")
	}

	roles := make(map[string]Grants, len(doc.Roles))
	for role, entities := range doc.Roles {
		grants := make(Grants, len(entities))
		for entity, actions := range entities {
			scopes := make(map[Action]Scope, len(actions))
			for action, scope := range actions {
				scopes[Action(action)] = Scope(scope)
			}
			grants[models.EntityType(entity)] = scopes
		}
		roles[role] = grants
	}
	return New(roles)
}
