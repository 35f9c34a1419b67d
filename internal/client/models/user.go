package models

import "time"

// RoleMembership is one role held by an account.
type RoleMembership struct {
	ID        ID         `json:"id,omitempty"`
	Role      Role       `json:"role"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// User is the identity part of a session as returned by /auth/me.
// Role is the active role; Roles lists every role the account holds.
type User struct {
	ID       ID               `json:"id"`
	Email    string           `json:"email"`
	Username string           `json:"username"`
	Name     string           `json:"name,omitempty"`
	Role     Role             `json:"role"`
	Roles    []RoleMembership `json:"roles"`
}

// HasRole reports whether the account holds r.
func (u *User) HasRole(r Role) bool {
	for _, m := range u.Roles {
		if m.Role.Is(r) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so readers never share the Roles slice with the owner.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]RoleMembership(nil), u.Roles...)
	return &c
}

// Session is the full authenticated state: identity plus opaque tokens.
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
}

// AuthResponse is the body of login, register and refresh responses.
// Role switch responses may carry fresh tokens too; empty tokens mean
// "keep the current ones".
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}

// RegisterInput is the payload of POST /auth/register.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
}

// ProfileUpdate carries the editable profile fields; nil fields are left as is.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
}
