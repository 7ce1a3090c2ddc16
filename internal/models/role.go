package models

import (
	"fmt"
	"strings"
)

// Role is a collaborator's access level on a trip. Roles are ordered:
// RoleViewer < RoleEditor < RoleOwner. RoleNone grants nothing.
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleEditor
	RoleOwner
)

// ParseRole converts a wire name ("viewer", "editor", "owner") to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "viewer":
		return RoleViewer, nil
	case "editor":
		return RoleEditor, nil
	case "owner":
		return RoleOwner, nil
	}
	return RoleNone, fmt.Errorf("invalid role %q: must be viewer, editor, or owner", s)
}

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleEditor:
		return "editor"
	case RoleOwner:
		return "owner"
	}
	return "none"
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r != RoleNone && r >= min
}
