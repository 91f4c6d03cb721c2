package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pbxadmin/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	CreateBatch(ctx context.Context, users []*models.User) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.User, error)
	CountInUseByExtension(ctx context.Context, companyID uuid.UUID, extension string, excludeID uuid.UUID) (int, error)
	InUseExtensions(ctx context.Context, companyID uuid.UUID) (map[string]struct{}, error)
	SetStatus(ctx context.Context, companyID, id uuid.UUID, status models.UserStatus) (int64, error)
	Approve(ctx context.Context, companyID, id uuid.UUID) (int64, error)
	Reject(ctx context.Context, companyID, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, company_id, name, extension, email, outbound_caller_id, did, status, created_at, updated_at`

// inUsePredicate matches rows whose extension counts as occupied.
// NULL status is legacy data and reads as active.
const inUsePredicate = `(status IS NULL OR status IN ('active', 'pending'))`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var status *string
	err := row.Scan(&user.ID, &user.CompanyID, &user.Name, &user.Extension, &user.Email,
		&user.OutboundCallerID, &user.DID, &status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Status = models.NormalizeStatus(status)
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, company_id, name, extension, email, outbound_caller_id, did, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`
	_, err := r.db.Exec(ctx, query, user.ID, user.CompanyID, user.Name, user.Extension,
		user.Email, user.OutboundCallerID, user.DID, string(user.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateExtension
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateBatch inserts all rows in one transaction. Any failure rolls
// the whole batch back.
func (r *userRepo) CreateBatch(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO users (id, company_id, name, extension, email, outbound_caller_id, did, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`
	for _, user := range users {
		if _, err := tx.Exec(ctx, query, user.ID, user.CompanyID, user.Name, user.Extension,
			user.Email, user.OutboundCallerID, user.DID, string(user.Status)); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateExtension
			}
			return fmt.Errorf("failed to insert user batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user batch: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE company_id = $1 AND id = $2`, userColumns)
	user, err := scanUser(r.db.QueryRow(ctx, query, companyID, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = $1, extension = $2, email = $3, outbound_caller_id = $4, did = $5, status = $6, updated_at = NOW()
		WHERE company_id = $7 AND id = $8`
	_, err := r.db.Exec(ctx, query, user.Name, user.Extension, user.Email,
		user.OutboundCallerID, user.DID, string(user.Status), user.CompanyID, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateExtension
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE company_id = $1 ORDER BY extension ASC NULLS LAST, name ASC`, userColumns)
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountInUseByExtension counts occupied rows holding the exact
// extension, excluding excludeID so edits do not collide with
// themselves. Pass uuid.Nil to exclude nothing.
func (r *userRepo) CountInUseByExtension(ctx context.Context, companyID uuid.UUID, extension string, excludeID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM users WHERE company_id = $1 AND extension = $2 AND id <> $3 AND %s`, inUsePredicate)
	var count int
	if err := r.db.QueryRow(ctx, query, companyID, extension, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count extensions: %w", err)
	}
	return count, nil
}

func (r *userRepo) InUseExtensions(ctx context.Context, companyID uuid.UUID) (map[string]struct{}, error) {
	query := fmt.Sprintf(`SELECT extension FROM users WHERE company_id = $1 AND extension IS NOT NULL AND %s`, inUsePredicate)
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load in-use extensions: %w", err)
	}
	defer rows.Close()

	extensions := make(map[string]struct{})
	for rows.Next() {
		var ext string
		if err := rows.Scan(&ext); err != nil {
			return nil, fmt.Errorf("failed to scan extension: %w", err)
		}
		extensions[ext] = struct{}{}
	}
	return extensions, rows.Err()
}

// SetStatus moves a user between buckets. Returns the number of rows
// touched; zero means no such user in the company.
func (r *userRepo) SetStatus(ctx context.Context, companyID, id uuid.UUID, status models.UserStatus) (int64, error) {
	query := `UPDATE users SET status = $1, updated_at = NOW() WHERE company_id = $2 AND id = $3`
	tag, err := r.db.Exec(ctx, query, string(status), companyID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to set user status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Approve flips a pending user to active. Returns the number of rows
// touched; zero means the user was not pending.
func (r *userRepo) Approve(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	query := `UPDATE users SET status = 'active', updated_at = NOW() WHERE company_id = $1 AND id = $2 AND status = 'pending'`
	tag, err := r.db.Exec(ctx, query, companyID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to approve user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Reject removes a pending user outright. Returns the number of rows
// touched; zero means the user was not pending.
func (r *userRepo) Reject(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	query := `DELETE FROM users WHERE company_id = $1 AND id = $2 AND status = 'pending'`
	tag, err := r.db.Exec(ctx, query, companyID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to reject user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *userRepo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	query := `DELETE FROM users WHERE company_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, companyID, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
