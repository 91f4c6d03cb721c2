package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pbxadmin/internal/models"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListRecentByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

type auditLogRepo struct {
	db DB
}

func NewAuditLogRepo(db DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `INSERT INTO audit_logs (id, company_id, table_name, record_id, action, actor_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.CompanyID, entry.TableName,
		entry.RecordID, entry.Action, entry.ActorAccountID)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditLogRepo) ListRecentByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	query := `SELECT id, company_id, table_name, record_id, action, actor_account_id, created_at
		FROM audit_logs WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.TableName, &entry.RecordID,
			&entry.Action, &entry.ActorAccountID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
