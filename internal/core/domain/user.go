package domain

import (
	"strings"
	"time"
)

// Role is the backend role attached to a user record.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a raw backend role onto a Role. Unknown values fall back to RoleUser.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// User is the profile of an authenticated end-user or administrator.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"fullName"`
	PhoneNumber     string     `json:"phoneNumber"`
	ProfileImageURL *string    `json:"profileImageUrl,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
	Role            Role       `json:"role"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// Clone returns a deep copy so callers never share pointers with the store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ProfileImageURL != nil {
		v := *u.ProfileImageURL
		c.ProfileImageURL = &v
	}
	if u.IsActive != nil {
		v := *u.IsActive
		c.IsActive = &v
	}
	if u.CreatedAt != nil {
		v := *u.CreatedAt
		c.CreatedAt = &v
	}
	return &c
}

// UserPatch carries the fields of a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Email           *string
	FullName        *string
	PhoneNumber     *string
	ProfileImageURL *string
	IsActive        *bool
}

// Apply shallow-merges the patch into a copy of u.
func (p UserPatch) Apply(u *User) *User {
	out := u.Clone()
	if out == nil {
		return nil
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.FullName != nil {
		out.FullName = *p.FullName
	}
	if p.PhoneNumber != nil {
		out.PhoneNumber = *p.PhoneNumber
	}
	if p.ProfileImageURL != nil {
		v := *p.ProfileImageURL
		out.ProfileImageURL = &v
	}
	if p.IsActive != nil {
		v := *p.IsActive
		out.IsActive = &v
	}
	return out
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.FullName == nil && p.PhoneNumber == nil &&
		p.ProfileImageURL == nil && p.IsActive == nil
}
