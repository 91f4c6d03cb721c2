package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the lifecycle state of a phone user. Legacy rows may
// carry NULL in the database; NULL reads as active everywhere.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusPending UserStatus = "pending"
	UserStatusDeleted UserStatus = "deleted"
)

// NormalizeStatus maps a nullable database value onto the enum. NULL
// and unknown values collapse to active.
func NormalizeStatus(raw *string) UserStatus {
	if raw == nil {
		return UserStatusActive
	}
	switch UserStatus(*raw) {
	case UserStatusPending:
		return UserStatusPending
	case UserStatusDeleted:
		return UserStatusDeleted
	default:
		return UserStatusActive
	}
}

// InUse reports whether a user in this status occupies its extension
// for uniqueness purposes.
func (s UserStatus) InUse() bool {
	return s == UserStatusActive || s == UserStatusPending
}

type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	CompanyID        uuid.UUID  `json:"company_id" db:"company_id"`
	Name             string     `json:"name" db:"name"`
	Extension        *string    `json:"extension" db:"extension"`
	Email            *string    `json:"email" db:"email"`
	OutboundCallerID *string    `json:"outbound_caller_id" db:"outbound_caller_id"`
	DID              *string    `json:"did" db:"did"`
	Status           UserStatus `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// GroupedUsers buckets a company's users by lifecycle state for the
// user management screen.
type GroupedUsers struct {
	Active  []*User `json:"active"`
	Pending []*User `json:"pending"`
	Deleted []*User `json:"deleted"`
}
