package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records an administrative mutation (approve, reject,
// permanent delete, company delete, bulk import).
type AuditLog struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	CompanyID      *uuid.UUID `json:"company_id" db:"company_id"`
	TableName      string     `json:"table_name" db:"table_name"`
	RecordID       string     `json:"record_id" db:"record_id"`
	Action         string     `json:"action" db:"action"`
	ActorAccountID uuid.UUID  `json:"actor_account_id" db:"actor_account_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
