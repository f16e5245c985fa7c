package domain

import (
	"strings"
	"time"
)

// RoleName is the access level of a user.
type RoleName string

const (
	RoleAdmin  RoleName = "admin"
	RoleClient RoleName = "client"
)

// Role is static reference data.
type Role struct {
	Name        RoleName `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
}

var roles = map[RoleName]Role{
	RoleAdmin:  {Name: RoleAdmin, DisplayName: "Administrator", Description: "Manages appointments and clients"},
	RoleClient: {Name: RoleClient, DisplayName: "Client", Description: "Books and pays for consultations"},
}

// FindRole resolves a role by name.
func FindRole(name RoleName) (Role, bool) {
	r, ok := roles[name]
	return r, ok
}

// User models an account holder.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Role         RoleName
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the resolved caller passed explicitly into every service call.
type Identity struct {
	UserID string
	Email  string
	Role   RoleName
}

// IdentityOf builds the caller identity for u.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Owns is the ownership predicate used by every client-scoped read and write:
// the appointment is linked to the caller's account, or it was submitted with
// the caller's email.
func (id Identity) Owns(a *Appointment) bool {
	if id.UserID != "" && a.UserID == id.UserID {
		return true
	}
	return id.Email != "" && NormalizeEmail(a.Email) == NormalizeEmail(id.Email)
}

// NormalizeEmail case-folds and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
