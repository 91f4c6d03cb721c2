package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pbxadmin/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	GetLatestByEmail(ctx context.Context, email string) (*models.Account, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type accountRepo struct {
	db DB
}

func NewAccountRepo(db DB) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, user_id, company_id, email, role, password_hash, is_active, created_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var role string
	err := row.Scan(&account.ID, &account.UserID, &account.CompanyID, &account.Email,
		&role, &account.PasswordHash, &account.IsActive, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	account.Role = models.AccountRole(role)
	return &account, nil
}

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (id, user_id, company_id, email, role, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`
	_, err := r.db.Exec(ctx, query, account.ID, account.UserID, account.CompanyID,
		account.Email, string(account.Role), account.PasswordHash, account.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByUserID returns (nil, nil) when the user has no account.
func (r *accountRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE user_id = $1`, accountColumns)
	account, err := scanAccount(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by user: %w", err)
	}
	return account, nil
}

// GetLatestByEmail picks the most recently created account for an
// email. Emails are not unique across accounts; the newest one wins
// at login. Returns (nil, nil) when no account matches.
func (r *accountRepo) GetLatestByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1 ORDER BY created_at DESC LIMIT 1`, accountColumns)
	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// DeleteByUserID is a no-op when the user has no account.
func (r *accountRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM accounts WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
