package models

import "time"

// User is an employee, manager, or candidate account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"role_id"`
	SchoolID     string    `json:"school_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role is a named authorization role referenced by users.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Role name constants
const (
	RoleHR      = "hr"
	RoleHO      = "ho"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleBDA     = "bda"
)
