package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountRole is the role carried by a login account and the session
// cookie. Anything else is treated as no session at all.
type AccountRole string

const (
	AccountRoleAdmin  AccountRole = "admin"
	AccountRoleEditor AccountRole = "editor"
)

func (r AccountRole) Valid() bool {
	return r == AccountRoleAdmin || r == AccountRoleEditor
}

// Account is a login identity. Admin accounts stand alone; editor
// accounts are bound to exactly one user and one company.
type Account struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       *uuid.UUID  `json:"user_id" db:"user_id"`
	CompanyID    *uuid.UUID  `json:"company_id" db:"company_id"`
	Email        string      `json:"email" db:"email"`
	Role         AccountRole `json:"role" db:"role"`
	PasswordHash string      `json:"-" db:"password_hash"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}
