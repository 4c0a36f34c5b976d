package models

import "time"

// UserRole represents user role
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Password       string    `json:"-" db:"password"`
	Role           UserRole  `json:"role" db:"role"`
	AccountEnabled bool      `json:"account_enabled" db:"account_enable"`
	AccountLocked  bool      `json:"account_locked" db:"account_locked"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
