package rbac

import (
	"errors"
	"strings"
)

// Role is a caller role supplied by the identity collaborator.
type Role string

// Supported roles.
const (
	RoleMaster  Role = "master"
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Action is one capability on a module.
type Action string

// Supported actions.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// ErrUnknownRole indicates a role outside the matrix.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Capabilities is the capability set granted to a role on one module.
type Capabilities struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	Export bool `json:"export"`
}

// Allows reports whether the set contains action.
func (c Capabilities) Allows(action Action) bool {
	switch action {
	case ActionView:
		return c.View
	case ActionCreate:
		return c.Create
	case ActionEdit:
		return c.Edit
	case ActionDelete:
		return c.Delete
	case ActionExport:
		return c.Export
	default:
		return false
	}
}

// Actions lists the granted actions in a fixed order.
func (c Capabilities) Actions() []Action {
	out := make([]Action, 0, 5)
	for _, a := range []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport} {
		if c.Allows(a) {
			out = append(out, a)
		}
	}
	return out
}

// ParseRole normalises value into a known Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Roles() {
		if role == known {
			return role, nil
		}
	}
	return "", ErrUnknownRole
}

// Roles lists the supported roles from most to least privileged.
func Roles() []Role {
	return []Role{RoleMaster, RoleAdmin, RoleAnalyst, RoleViewer}
}
