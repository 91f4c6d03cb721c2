package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pbxadmin/internal/models"
)

type importFixture struct {
	userRepo  *MockUserRepository
	auditRepo *MockAuditLogRepository
	cacheSvc  *MockCacheService
	service   ImportService
	companyID uuid.UUID
	actorID   uuid.UUID
}

func newImportFixture(minioSvc MinioService) *importFixture {
	f := &importFixture{
		userRepo:  new(MockUserRepository),
		auditRepo: new(MockAuditLogRepository),
		cacheSvc:  new(MockCacheService),
		companyID: uuid.New(),
		actorID:   uuid.New(),
	}
	f.service = NewImportService(f.userRepo, f.auditRepo, f.cacheSvc, minioSvc, "imports")
	return f
}

func TestImportCSVHappyPath(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number,FirstName,LastName,EmailAddress,OutboundCallerID,DID\n" +
		"100,John,Doe,j@example.com,+15550100,+15550200\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
		if len(users) != 1 {
			return false
		}
		u := users[0]
		return u.Name == "John Doe" &&
			*u.Extension == "100" &&
			*u.Email == "j@example.com" &&
			*u.OutboundCallerID == "+15550100" &&
			*u.DID == "+15550200" &&
			u.Status == models.UserStatusActive
	})).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *models.AuditLog) bool {
		return e.Action == "users.import"
	})).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsProcessed)
	assert.Equal(t, 1, result.RowsImported)
	assert.Equal(t, 0, result.RowsSkipped)
	f.userRepo.AssertExpectations(t)
}

func TestImportCSVHeaderOrderDoesNotMatter(t *testing.T) {
	f := newImportFixture(nil)
	csv := "FirstName,DID,Number\nJohn,+15550200,100\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
		return len(users) == 1 && *users[0].Extension == "100" && users[0].Name == "John" && *users[0].DID == "+15550200"
	})).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsImported)
}

func TestImportCSVSkipsOccupiedExtensions(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number,FirstName\n100,Taken\n101,Fresh\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{"100": {}}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
		return len(users) == 1 && *users[0].Extension == "101"
	})).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsProcessed)
	assert.Equal(t, 1, result.RowsImported)
	assert.Equal(t, 1, result.RowsSkipped)
}

func TestImportCSVDedupesWithinFile(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number,FirstName\n100,First\n100,Second\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
		return len(users) == 1 && users[0].Name == "First"
	})).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsImported)
	assert.Equal(t, 1, result.RowsSkipped)
}

func TestImportCSVNameFallsBackToExtension(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number\n100\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
		return len(users) == 1 && users[0].Name == "100"
	})).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	_, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
}

func TestImportCSVHeaderOnlyIsEmpty(t *testing.T) {
	f := newImportFixture(nil)

	_, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", "Number,FirstName\n", f.actorID)

	assert.ErrorIs(t, err, ErrEmptyImportFile)
}

func TestImportCSVBlankLinesIgnored(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number,FirstName\r\n\r\n100,John\r\n\r\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(users []*models.User) bool {
		return len(users) == 1 && *users[0].Extension == "100"
	})).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsProcessed)
	assert.Equal(t, 1, result.RowsImported)
}

func TestImportCSVMissingNumberColumn(t *testing.T) {
	f := newImportFixture(nil)

	_, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", "FirstName,LastName\nJohn,Doe\n", f.actorID)

	assert.ErrorIs(t, err, ErrMissingNumberColumn)
}

func TestImportCSVZeroStagedIsSuccessfulNoOp(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number,FirstName\n100,Taken\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{"100": {}}, nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 0, result.RowsImported)
	assert.Equal(t, 1, result.RowsSkipped)
	f.userRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImportCSVBatchFailureFailsWholeImport(t *testing.T) {
	f := newImportFixture(nil)
	csv := "Number\n100\n101\n"

	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	assert.Error(t, err)
	f.cacheSvc.AssertNotCalled(t, "InvalidateCompanyUsers", mock.Anything, mock.Anything)
}

func TestImportCSVArchivesUploadBestEffort(t *testing.T) {
	minioSvc := new(MockMinioService)
	f := newImportFixture(minioSvc)
	csv := "Number\n100\n"

	// Archive failure must not block the import.
	minioSvc.On("UploadCSV", mock.Anything, "imports", mock.Anything, mock.Anything, int64(len(csv))).
		Return(errors.New("bucket offline"))
	f.userRepo.On("InUseExtensions", mock.Anything, f.companyID).Return(map[string]struct{}{}, nil)
	f.userRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cacheSvc.On("InvalidateCompanyUsers", mock.Anything, f.companyID).Return(nil)

	result, err := f.service.ImportCSV(context.Background(), f.companyID, "users.csv", csv, f.actorID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsImported)
	minioSvc.AssertExpectations(t)
}
