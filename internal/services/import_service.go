package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pbxadmin/internal/caching"
	"pbxadmin/internal/common"
	"pbxadmin/internal/models"
	"pbxadmin/internal/repositories"
)

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	RowsProcessed int `json:"rows_processed"`
	RowsImported  int `json:"rows_imported"`
	RowsSkipped   int `json:"rows_skipped"`
}

type ImportService interface {
	ImportCSV(ctx context.Context, companyID uuid.UUID, filename, data string, actorID uuid.UUID) (*ImportResult, error)
}

type importService struct {
	userRepo  repositories.UserRepository
	auditRepo repositories.AuditLogRepository
	cacheSvc  caching.CacheService
	minioSvc  MinioService
	bucket    string
}

func NewImportService(userRepo repositories.UserRepository, auditRepo repositories.AuditLogRepository, cacheSvc caching.CacheService, minioSvc MinioService, bucket string) ImportService {
	return &importService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		cacheSvc:  cacheSvc,
		minioSvc:  minioSvc,
		bucket:    bucket,
	}
}

// ImportCSV stages users from an exported phone-system CSV and inserts
// them in one batch. The parser is deliberately simple: lines split on
// newlines, cells split on commas, no quoted-field support. That
// matches the files the phone system exports.
func (s *importService) ImportCSV(ctx context.Context, companyID uuid.UUID, filename, data string, actorID uuid.UUID) (*ImportResult, error) {
	s.archive(ctx, companyID, filename, data)

	lines := splitLines(data)
	if len(lines) < 2 {
		return nil, ErrEmptyImportFile
	}

	header := strings.Split(lines[0], ",")
	numberIdx := columnIndex(header, "Number")
	if numberIdx < 0 {
		return nil, ErrMissingNumberColumn
	}
	firstNameIdx := columnIndex(header, "FirstName")
	lastNameIdx := columnIndex(header, "LastName")
	emailIdx := columnIndex(header, "EmailAddress")
	callerIDIdx := columnIndex(header, "OutboundCallerID")
	didIdx := columnIndex(header, "DID")

	// Extensions already occupied in the company seed the dedup set,
	// so re-importing the same file is a no-op.
	seen, err := s.userRepo.InUseExtensions(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load in-use extensions: %w", err)
	}

	result := &ImportResult{}
	var staged []*models.User
	for _, line := range lines[1:] {
		result.RowsProcessed++
		cells := strings.Split(line, ",")

		extension := cell(cells, numberIdx)
		if extension == "" {
			result.RowsSkipped++
			continue
		}
		if _, dup := seen[extension]; dup {
			result.RowsSkipped++
			continue
		}

		name := strings.TrimSpace(cell(cells, firstNameIdx) + " " + cell(cells, lastNameIdx))
		if name == "" {
			name = extension
		}

		staged = append(staged, &models.User{
			ID:               uuid.New(),
			CompanyID:        companyID,
			Name:             name,
			Extension:        common.OptionalString(extension),
			Email:            common.OptionalString(cell(cells, emailIdx)),
			OutboundCallerID: common.OptionalString(cell(cells, callerIDIdx)),
			DID:              common.OptionalString(cell(cells, didIdx)),
			Status:           models.UserStatusActive,
		})
		seen[extension] = struct{}{}
	}

	if len(staged) == 0 {
		return result, nil
	}

	if err := s.userRepo.CreateBatch(ctx, staged); err != nil {
		return nil, fmt.Errorf("insert imported users: %w", err)
	}
	result.RowsImported = len(staged)

	s.audit(ctx, companyID, filename, actorID)
	if err := s.cacheSvc.InvalidateCompanyUsers(ctx, companyID); err != nil {
		log.Printf("WARN: failed to invalidate user cache for company %s: %v", companyID, err)
	}
	return result, nil
}

// splitLines splits on \r?\n, trims each line and drops blanks.
func splitLines(data string) []string {
	var lines []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// columnIndex locates a header cell by exact name. Header order does
// not matter; extra columns are ignored.
func columnIndex(header []string, name string) int {
	for i, cell := range header {
		if cell == name {
			return i
		}
	}
	return -1
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// archive stores the raw upload before parsing. Best-effort: a broken
// bucket must not block the import itself.
func (s *importService) archive(ctx context.Context, companyID uuid.UUID, filename, data string) {
	if s.minioSvc == nil {
		return
	}
	objectName := fmt.Sprintf("%s/%d-%s", companyID, time.Now().UTC().Unix(), filename)
	if err := s.minioSvc.UploadCSV(ctx, s.bucket, objectName, strings.NewReader(data), int64(len(data))); err != nil {
		log.Printf("WARN: failed to archive import %s for company %s: %v", filename, companyID, err)
	}
}

func (s *importService) audit(ctx context.Context, companyID uuid.UUID, filename string, actorID uuid.UUID) {
	entry := &models.AuditLog{
		ID:             uuid.New(),
		CompanyID:      &companyID,
		TableName:      "users",
		RecordID:       filename,
		Action:         "users.import",
		ActorAccountID: actorID,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to write audit log for users.import: %v", err)
	}
}
