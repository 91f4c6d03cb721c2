package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pbxadmin/internal/models"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Company, error)
	ListWithReviewCounts(ctx context.Context) ([]*models.CompanyOverview, error)
}

type companyRepo struct {
	db DB
}

func NewCompanyRepo(db DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *models.Company) error {
	query := `INSERT INTO companies (id, name, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())`
	_, err := r.db.Exec(ctx, query, company.ID, company.Name)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `SELECT id, name, created_at, updated_at FROM companies WHERE id = $1`
	var company models.Company
	err := r.db.QueryRow(ctx, query, id).Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

func (r *companyRepo) Update(ctx context.Context, company *models.Company) error {
	query := `UPDATE companies SET name = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, company.Name, company.ID)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

// Delete removes the company and all its users in one transaction.
// Editor accounts bound to those users go with them via the foreign
// key cascade on accounts.user_id.
func (r *companyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE company_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete company users: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit company delete: %w", err)
	}
	return nil
}

func (r *companyRepo) List(ctx context.Context) ([]*models.Company, error) {
	query := `SELECT id, name, created_at, updated_at FROM companies ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var company models.Company
		if err := rows.Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &company)
	}
	return companies, rows.Err()
}

func (r *companyRepo) ListWithReviewCounts(ctx context.Context) ([]*models.CompanyOverview, error) {
	query := `
		SELECT c.id, c.name, c.created_at, c.updated_at,
		       COUNT(u.id) FILTER (WHERE u.status = 'pending') AS pending_users,
		       COUNT(u.id) FILTER (WHERE u.status = 'deleted') AS deleted_users
		FROM companies c
		LEFT JOIN users u ON u.company_id = c.id
		GROUP BY c.id, c.name, c.created_at, c.updated_at
		ORDER BY c.name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies with counts: %w", err)
	}
	defer rows.Close()

	var overviews []*models.CompanyOverview
	for rows.Next() {
		var o models.CompanyOverview
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt, &o.PendingUsers, &o.DeletedUsers); err != nil {
			return nil, fmt.Errorf("failed to scan company overview: %w", err)
		}
		overviews = append(overviews, &o)
	}
	return overviews, rows.Err()
}
