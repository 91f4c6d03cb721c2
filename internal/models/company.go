package models

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CompanyOverview is a company row plus the counters the admin
// dashboard shows next to it: users waiting for approval and users
// sitting in the deleted bucket.
type CompanyOverview struct {
	Company
	PendingUsers int `json:"pending_users"`
	DeletedUsers int `json:"deleted_users"`
}
