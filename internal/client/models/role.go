package models

import (
	"errors"
	"strings"
)

// Role is an account capability gating which dashboards and commands are
// reachable. "company" and "empresa" name the same role; the backend uses
// both spellings.
type Role string

const (
	RoleUser      Role = "user"
	RoleCompany   Role = "company"
	RoleEmpresa   Role = "empresa"
	RoleAdmin     Role = "admin"
	RolePlantador Role = "plantador"
	RoleVivero    Role = "vivero"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole normalises s and reports ErrUnknownRole for anything outside
// the fixed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCompany, RoleEmpresa, RoleAdmin, RolePlantador, RoleVivero:
		return true
	}
	return false
}

// Is compares roles treating company and empresa as equal.
func (r Role) Is(other Role) bool {
	return r.canonical() == other.canonical()
}

func (r Role) canonical() Role {
	if r == RoleCompany {
		return RoleEmpresa
	}
	return r
}
