package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pbxadmin/internal/models"
	"pbxadmin/internal/repositories"
)

// tempPasswordAlphabet avoids lookalike characters (0/O, 1/l/I).
const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!?@#$"

const tempPasswordLength = 10

type AccountService interface {
	// CreateForUser provisions an editor account and returns the
	// generated temporary password. The password is shown exactly
	// once; only its bcrypt hash is stored.
	CreateForUser(ctx context.Context, userID, companyID uuid.UUID, email string) (*models.Account, string, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	RemoveForUser(ctx context.Context, userID uuid.UUID) error
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
}

type accountService struct {
	accountRepo repositories.AccountRepository
}

func NewAccountService(accountRepo repositories.AccountRepository) AccountService {
	return &accountService{accountRepo: accountRepo}
}

func (s *accountService) CreateForUser(ctx context.Context, userID, companyID uuid.UUID, email string) (*models.Account, string, error) {
	existing, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		return nil, "", ErrAccountExists
	}

	tempPassword, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash temporary password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New(),
		UserID:       &userID,
		CompanyID:    &companyID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Role:         models.AccountRoleEditor,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAccount) {
			return nil, "", ErrAccountExists
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	return account, tempPassword, nil
}

func (s *accountService) GetForUser(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	return s.accountRepo.GetByUserID(ctx, userID)
}

// RemoveForUser is idempotent: removing an absent account succeeds.
func (s *accountService) RemoveForUser(ctx context.Context, userID uuid.UUID) error {
	return s.accountRepo.DeleteByUserID(ctx, userID)
}

// Authenticate verifies credentials for login. The email is trimmed
// but not lowercased; when several accounts share an email the most
// recently created one wins. Failures are indistinguishable on
// purpose.
func (s *accountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accountRepo.GetLatestByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account == nil || account.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func generateTempPassword(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(tempPasswordAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
