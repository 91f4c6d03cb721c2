package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"pbxadmin/internal/models"
	"pbxadmin/internal/repositories"
)

type AccountServiceTestSuite struct {
	suite.Suite
	accountRepo *MockAccountRepository
	service     AccountService
	userID      uuid.UUID
	companyID   uuid.UUID
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.accountRepo = new(MockAccountRepository)
	s.service = NewAccountService(s.accountRepo)
	s.userID = uuid.New()
	s.companyID = uuid.New()
}

func (s *AccountServiceTestSuite) TestCreateForUserProvisionsEditor() {
	var created *models.Account

	s.accountRepo.On("GetByUserID", mock.Anything, s.userID).Return(nil, nil)
	s.accountRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
		created = a
		return a.Role == models.AccountRoleEditor && a.IsActive &&
			*a.UserID == s.userID && *a.CompanyID == s.companyID
	})).Return(nil)

	account, tempPassword, err := s.service.CreateForUser(context.Background(), s.userID, s.companyID, "  Editor@Example.COM ")

	s.Require().NoError(err)
	s.Equal("editor@example.com", account.Email)
	s.Len(tempPassword, tempPasswordLength)
	for _, ch := range tempPassword {
		s.Contains(tempPasswordAlphabet, string(ch))
	}
	// Only the hash is stored, and it matches the returned password.
	s.NotContains(created.PasswordHash, tempPassword)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(tempPassword)))
}

func (s *AccountServiceTestSuite) TestCreateForUserRejectsExisting() {
	existing := &models.Account{ID: uuid.New(), UserID: &s.userID, Role: models.AccountRoleEditor}

	s.accountRepo.On("GetByUserID", mock.Anything, s.userID).Return(existing, nil)

	_, _, err := s.service.CreateForUser(context.Background(), s.userID, s.companyID, "editor@example.com")

	s.ErrorIs(err, ErrAccountExists)
	s.accountRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestCreateForUserMapsUniqueIndexRace() {
	s.accountRepo.On("GetByUserID", mock.Anything, s.userID).Return(nil, nil)
	s.accountRepo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateAccount)

	_, _, err := s.service.CreateForUser(context.Background(), s.userID, s.companyID, "editor@example.com")

	s.ErrorIs(err, ErrAccountExists)
}

func (s *AccountServiceTestSuite) TestRemoveForUserIsIdempotent() {
	s.accountRepo.On("DeleteByUserID", mock.Anything, s.userID).Return(nil)

	s.NoError(s.service.RemoveForUser(context.Background(), s.userID))
	s.accountRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestAuthenticateSuccess() {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	s.Require().NoError(err)
	account := &models.Account{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		Role:         models.AccountRoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	s.accountRepo.On("GetLatestByEmail", mock.Anything, "admin@example.com").Return(account, nil)

	got, err := s.service.Authenticate(context.Background(), " admin@example.com ", "correct horse")

	s.Require().NoError(err)
	s.Equal(account.ID, got.ID)
}

func (s *AccountServiceTestSuite) TestAuthenticateTrimsButKeepsCase() {
	s.accountRepo.On("GetLatestByEmail", mock.Anything, "Admin@Example.com").Return(nil, nil)

	_, err := s.service.Authenticate(context.Background(), "  Admin@Example.com  ", "whatever")

	s.ErrorIs(err, ErrInvalidCredentials)
	s.accountRepo.AssertCalled(s.T(), "GetLatestByEmail", mock.Anything, "Admin@Example.com")
}

func (s *AccountServiceTestSuite) TestAuthenticateWrongPassword() {
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	s.Require().NoError(err)
	account := &models.Account{Email: "admin@example.com", PasswordHash: string(hash)}

	s.accountRepo.On("GetLatestByEmail", mock.Anything, "admin@example.com").Return(account, nil)

	_, err = s.service.Authenticate(context.Background(), "admin@example.com", "wrong")

	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AccountServiceTestSuite) TestAuthenticateEmptyHashNeverMatches() {
	account := &models.Account{Email: "admin@example.com", PasswordHash: ""}

	s.accountRepo.On("GetLatestByEmail", mock.Anything, "admin@example.com").Return(account, nil)

	_, err := s.service.Authenticate(context.Background(), "admin@example.com", "anything")

	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AccountServiceTestSuite) TestAuthenticateBlankInput() {
	_, err := s.service.Authenticate(context.Background(), "   ", "pw")

	s.ErrorIs(err, ErrInvalidCredentials)
	s.accountRepo.AssertNotCalled(s.T(), "GetLatestByEmail", mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestTempPasswordsDiffer() {
	a, err := generateTempPassword(tempPasswordLength)
	s.Require().NoError(err)
	b, err := generateTempPassword(tempPasswordLength)
	s.Require().NoError(err)
	s.NotEqual(a, b)
	s.False(strings.ContainsAny(a, "0O1lI"))
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
