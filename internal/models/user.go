package models

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	default:
		return false
	}
}

// Profile of the user the console is logged in as (or any user listed in administration)
type Profile struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Role        Role      `json:"role"`
	Phone       string    `json:"phone,omitempty"`
	Department  string    `json:"department,omitempty"`
	Position    string    `json:"position,omitempty"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

func (p *Profile) HasPermissionListed(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

// Role or permission choice as the API lists it
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
