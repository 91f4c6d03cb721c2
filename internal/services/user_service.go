package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pbxadmin/internal/caching"
	"pbxadmin/internal/common"
	"pbxadmin/internal/models"
	"pbxadmin/internal/repositories"
)

// userListCacheTTL bounds staleness of the grouped listing between
// mutations coming from outside this service.
const userListCacheTTL = 5 * time.Minute

type CreateUserInput struct {
	CompanyID        uuid.UUID
	Name             string
	Extension        string
	Email            string
	OutboundCallerID string
	DID              string
}

type UpdateUserInput struct {
	CompanyID        uuid.UUID
	UserID           uuid.UUID
	Name             string
	Extension        string
	Email            string
	OutboundCallerID string
	DID              string
}

type UserService interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID, search string) (*models.GroupedUsers, error)
	Create(ctx context.Context, input CreateUserInput, role models.AccountRole) (*models.User, error)
	Update(ctx context.Context, input UpdateUserInput, role models.AccountRole) (*models.User, error)
	Approve(ctx context.Context, companyID, userID, actorID uuid.UUID) error
	Reject(ctx context.Context, companyID, userID, actorID uuid.UUID) error
	SoftDelete(ctx context.Context, companyID, userID uuid.UUID) error
	Restore(ctx context.Context, companyID, userID uuid.UUID) error
	HardDelete(ctx context.Context, companyID, userID uuid.UUID, role models.AccountRole, actorID uuid.UUID) error
}

type userService struct {
	userRepo  repositories.UserRepository
	auditRepo repositories.AuditLogRepository
	cacheSvc  caching.CacheService
}

func NewUserService(userRepo repositories.UserRepository, auditRepo repositories.AuditLogRepository, cacheSvc caching.CacheService) UserService {
	return &userService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		cacheSvc:  cacheSvc,
	}
}

func (s *userService) ListByCompany(ctx context.Context, companyID uuid.UUID, search string) (*models.GroupedUsers, error) {
	search = strings.TrimSpace(search)

	if search == "" {
		cached, err := s.cacheSvc.GetCompanyUsers(ctx, companyID)
		if err != nil {
			log.Printf("WARN: user list cache read failed for company %s: %v", companyID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	grouped := groupUsers(users, search)

	if search == "" {
		if err := s.cacheSvc.SetCompanyUsers(ctx, companyID, grouped, userListCacheTTL); err != nil {
			log.Printf("WARN: user list cache write failed for company %s: %v", companyID, err)
		}
	}
	return grouped, nil
}

func groupUsers(users []*models.User, search string) *models.GroupedUsers {
	grouped := &models.GroupedUsers{
		Active:  []*models.User{},
		Pending: []*models.User{},
		Deleted: []*models.User{},
	}
	needle := strings.ToLower(search)
	for _, user := range users {
		if needle != "" && !matchesSearch(user, needle) {
			continue
		}
		switch user.Status {
		case models.UserStatusPending:
			grouped.Pending = append(grouped.Pending, user)
		case models.UserStatusDeleted:
			grouped.Deleted = append(grouped.Deleted, user)
		default:
			grouped.Active = append(grouped.Active, user)
		}
	}
	return grouped
}

func matchesSearch(user *models.User, needle string) bool {
	fields := []*string{user.Extension, user.Email, user.OutboundCallerID, user.DID}
	if strings.Contains(strings.ToLower(user.Name), needle) {
		return true
	}
	for _, field := range fields {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

// Create stages a new user. Editors create pending users that wait
// for admin approval; admins create active ones.
func (s *userService) Create(ctx context.Context, input CreateUserInput, role models.AccountRole) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	extension := strings.TrimSpace(input.Extension)
	if extension != "" {
		if err := s.checkExtensionFree(ctx, input.CompanyID, extension, uuid.Nil); err != nil {
			return nil, err
		}
	}

	status := models.UserStatusActive
	if role == models.AccountRoleEditor {
		status = models.UserStatusPending
	}

	user := &models.User{
		ID:               uuid.New(),
		CompanyID:        input.CompanyID,
		Name:             name,
		Extension:        common.OptionalString(extension),
		Email:            common.OptionalString(input.Email),
		OutboundCallerID: common.OptionalString(input.OutboundCallerID),
		DID:              common.OptionalString(input.DID),
		Status:           status,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateExtension) {
			return nil, &ExtensionInUseError{Extension: extension}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.invalidate(ctx, input.CompanyID)
	return user, nil
}

// Update edits a user in place. Any editor change drops the user back
// to pending; an admin edit settles it as active.
func (s *userService) Update(ctx context.Context, input UpdateUserInput, role models.AccountRole) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	user, err := s.userRepo.GetByID(ctx, input.CompanyID, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	extension := strings.TrimSpace(input.Extension)
	if extension != "" {
		if err := s.checkExtensionFree(ctx, input.CompanyID, extension, input.UserID); err != nil {
			return nil, err
		}
	}

	status := models.UserStatusActive
	if role == models.AccountRoleEditor {
		status = models.UserStatusPending
	}

	user.Name = name
	user.Extension = common.OptionalString(extension)
	user.Email = common.OptionalString(input.Email)
	user.OutboundCallerID = common.OptionalString(input.OutboundCallerID)
	user.DID = common.OptionalString(input.DID)
	user.Status = status

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateExtension) {
			return nil, &ExtensionInUseError{Extension: extension}
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.invalidate(ctx, input.CompanyID)
	return user, nil
}

func (s *userService) Approve(ctx context.Context, companyID, userID, actorID uuid.UUID) error {
	affected, err := s.userRepo.Approve(ctx, companyID, userID)
	if err != nil {
		return fmt.Errorf("approve user: %w", err)
	}
	if affected == 0 {
		return ErrPendingUserNotFound
	}

	s.audit(ctx, companyID, userID, "user.approve", actorID)
	s.invalidate(ctx, companyID)
	return nil
}

// Reject discards a pending user entirely. There is nothing to keep:
// the row never made it past review.
func (s *userService) Reject(ctx context.Context, companyID, userID, actorID uuid.UUID) error {
	affected, err := s.userRepo.Reject(ctx, companyID, userID)
	if err != nil {
		return fmt.Errorf("reject user: %w", err)
	}
	if affected == 0 {
		return ErrPendingUserNotFound
	}

	s.audit(ctx, companyID, userID, "user.reject", actorID)
	s.invalidate(ctx, companyID)
	return nil
}

func (s *userService) SoftDelete(ctx context.Context, companyID, userID uuid.UUID) error {
	affected, err := s.userRepo.SetStatus(ctx, companyID, userID, models.UserStatusDeleted)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	s.invalidate(ctx, companyID)
	return nil
}

func (s *userService) Restore(ctx context.Context, companyID, userID uuid.UUID) error {
	affected, err := s.userRepo.SetStatus(ctx, companyID, userID, models.UserStatusActive)
	if err != nil {
		return fmt.Errorf("restore user: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	s.invalidate(ctx, companyID)
	return nil
}

// HardDelete removes the row permanently. Only admins may do this;
// the role check lives here so no transport can bypass it.
func (s *userService) HardDelete(ctx context.Context, companyID, userID uuid.UUID, role models.AccountRole, actorID uuid.UUID) error {
	if role != models.AccountRoleAdmin {
		return ErrAdminOnly
	}
	if err := s.userRepo.Delete(ctx, companyID, userID); err != nil {
		return fmt.Errorf("hard delete user: %w", err)
	}

	s.audit(ctx, companyID, userID, "user.hard_delete", actorID)
	s.invalidate(ctx, companyID)
	return nil
}

// checkExtensionFree is the descriptive pre-check. The partial unique
// index remains the arbiter under concurrency.
func (s *userService) checkExtensionFree(ctx context.Context, companyID uuid.UUID, extension string, excludeID uuid.UUID) error {
	count, err := s.userRepo.CountInUseByExtension(ctx, companyID, extension, excludeID)
	if err != nil {
		return fmt.Errorf("check extension: %w", err)
	}
	if count > 0 {
		return &ExtensionInUseError{Extension: extension}
	}
	return nil
}

func (s *userService) invalidate(ctx context.Context, companyID uuid.UUID) {
	if err := s.cacheSvc.InvalidateCompanyUsers(ctx, companyID); err != nil {
		log.Printf("WARN: failed to invalidate user cache for company %s: %v", companyID, err)
	}
}

func (s *userService) audit(ctx context.Context, companyID, userID uuid.UUID, action string, actorID uuid.UUID) {
	entry := &models.AuditLog{
		ID:             uuid.New(),
		CompanyID:      &companyID,
		TableName:      "users",
		RecordID:       userID.String(),
		Action:         action,
		ActorAccountID: actorID,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to write audit log for %s: %v", action, err)
	}
}
