// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"slices"
	"time"
)

// Role is the coarse access level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Permission is a single capability granted to an account.
type Permission string

const (
	PermRead           Permission = "read"
	PermWrite          Permission = "write"
	PermAdmin          Permission = "admin"
	PermUserManagement Permission = "user_management"
)

// AllPermissions lists every known permission in display order.
var AllPermissions = []Permission{PermRead, PermWrite, PermAdmin, PermUserManagement}

// UserAccount is a persisted dashboard account.
type UserAccount struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password"`
	Role         Role         `json:"role"`
	Permissions  []Permission `json:"permissions"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastLogin    *time.Time   `json:"lastLogin"`
	Active       bool         `json:"isActive"`
}

// View returns the sanitized projection of the account.
func (u *UserAccount) View() UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: slices.Clone(u.Permissions),
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
		Active:      u.Active,
	}
}

// UserView is an account without its password hash. It is the only shape
// that leaves the credential store.
type UserView struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"createdAt"`
	LastLogin   *time.Time   `json:"lastLogin,omitempty"`
	Active      bool         `json:"isActive"`
}

// HasPermission reports whether the view carries p.
func (v UserView) HasPermission(p Permission) bool {
	return slices.Contains(v.Permissions, p)
}

// IsAdmin reports whether the view has the admin role.
func (v UserView) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// Session is the single current-login record of a dashboard client.
type Session struct {
	ID            string    `json:"sessionId"`
	Username      string    `json:"username"`
	User          UserView  `json:"user"`
	CreatedAt     time.Time `json:"loginTime"`
	Authenticated bool      `json:"isAuthenticated"`
	// Token is the relay bearer token; empty in mock mode.
	Token string `json:"token,omitempty"`
}

// LoginAttempt counts consecutive failures for one identity.
type LoginAttempt struct {
	Count       int       `json:"count"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// ServerSession is a relay-side session row bound to an issued token.
type ServerSession struct {
	ID        string
	Username  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository defines the port for relay session persistence.
type SessionRepository interface {
	Create(ctx context.Context, s ServerSession) error
	GetByID(ctx context.Context, id string) (*ServerSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}
