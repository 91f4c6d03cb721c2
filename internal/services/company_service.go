package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pbxadmin/internal/caching"
	"pbxadmin/internal/models"
	"pbxadmin/internal/repositories"
)

type CompanyService interface {
	Create(ctx context.Context, name string) (*models.Company, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Company, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	Overview(ctx context.Context) ([]*models.CompanyOverview, error)
	AuditTrail(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

type companyService struct {
	companyRepo repositories.CompanyRepository
	auditRepo   repositories.AuditLogRepository
	cacheSvc    caching.CacheService
}

func NewCompanyService(companyRepo repositories.CompanyRepository, auditRepo repositories.AuditLogRepository, cacheSvc caching.CacheService) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		auditRepo:   auditRepo,
		cacheSvc:    cacheSvc,
	}
}

func (s *companyService) Create(ctx context.Context, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCompanyNameRequired
	}

	company := &models.Company{
		ID:   uuid.New(),
		Name: name,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

func (s *companyService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCompanyNameRequired
	}

	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("load company for rename: %w", err)
	}

	company.Name = name
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("rename company: %w", err)
	}
	return company, nil
}

// Delete removes the company and everything under it. The repository
// cascades users (and their editor accounts) in the same transaction.
func (s *companyService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.companyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}

	s.audit(ctx, id, id.String(), "company.delete", actorID)

	if err := s.cacheSvc.InvalidateCompanyUsers(ctx, id); err != nil {
		log.Printf("WARN: failed to invalidate user cache for company %s: %v", id, err)
	}
	return nil
}

func (s *companyService) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return company, nil
}

func (s *companyService) List(ctx context.Context) ([]*models.Company, error) {
	return s.companyRepo.List(ctx)
}

func (s *companyService) Overview(ctx context.Context) ([]*models.CompanyOverview, error) {
	return s.companyRepo.ListWithReviewCounts(ctx)
}

func (s *companyService) AuditTrail(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	entries, err := s.auditRepo.ListRecentByCompany(ctx, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	return entries, nil
}

func (s *companyService) audit(ctx context.Context, companyID uuid.UUID, recordID, action string, actorID uuid.UUID) {
	entry := &models.AuditLog{
		ID:             uuid.New(),
		CompanyID:      &companyID,
		TableName:      "companies",
		RecordID:       recordID,
		Action:         action,
		ActorAccountID: actorID,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to write audit log for %s: %v", action, err)
	}
}
