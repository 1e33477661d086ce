package model

import "github.com/google/uuid"

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser, RoleManager, RoleAdmin:
		return Role(raw), true
	default:
		return "", false
	}
}

// CanAuthor reports whether the role may edit templates and line names/prices.
func (r Role) CanAuthor() bool {
	return r == RoleManager || r == RoleAdmin
}

type Principal struct {
	UserID       uuid.UUID
	Role         Role
	DepartmentID *uuid.UUID
}

func (p Principal) CanAuthor() bool {
	return p.Role.CanAuthor()
}
