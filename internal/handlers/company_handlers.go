package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pbxadmin/internal/common"
	"pbxadmin/internal/models"
	"pbxadmin/internal/services"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type CompanyHandlers struct {
	companySvc services.CompanyService
}

func NewCompanyHandlers(companySvc services.CompanyService) *CompanyHandlers {
	return &CompanyHandlers{companySvc: companySvc}
}

type CompanyRequest struct {
	Name string `json:"name"`
}

// actorID pulls the acting account out of the session placed there by
// the guard. It returns uuid.Nil when the ID cannot be parsed, which
// only happens with hand-crafted cookies.
func actorID(c echo.Context) uuid.UUID {
	sess, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok || sess == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(sess.AccountID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (h *CompanyHandlers) List(c echo.Context) error {
	overviews, err := h.companySvc.Overview(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: failed to list companies: %v", err)
		return common.SendServerError(c, "failed to list companies")
	}
	return c.JSON(http.StatusOK, overviews)
}

func (h *CompanyHandlers) Create(c echo.Context) error {
	var req CompanyRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "invalid request body")
	}

	company, err := h.companySvc.Create(c.Request().Context(), req.Name)
	if err != nil {
		if errors.Is(err, services.ErrCompanyNameRequired) {
			return common.SendValidationError(c, "name", "company name is required")
		}
		log.Printf("ERROR: failed to create company: %v", err)
		return common.SendServerError(c, "failed to create company")
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandlers) Rename(c echo.Context) error {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return common.SendValidationError(c, "companyId", err.Error())
	}

	var req CompanyRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "invalid request body")
	}

	company, err := h.companySvc.Rename(c.Request().Context(), companyID, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrCompanyNameRequired) {
			return common.SendValidationError(c, "name", "company name is required")
		}
		if errors.Is(err, services.ErrCompanyNotFound) {
			return common.SendNotFoundError(c, "company")
		}
		log.Printf("ERROR: failed to rename company %s: %v", companyID, err)
		return common.SendServerError(c, "failed to rename company")
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandlers) AuditTrail(c echo.Context) error {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return common.SendValidationError(c, "companyId", err.Error())
	}

	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxAuditLimit {
			return common.SendValidationError(c, "limit", "limit must be between 1 and 200")
		}
		limit = parsed
	}

	entries, err := h.companySvc.AuditTrail(c.Request().Context(), companyID, limit)
	if err != nil {
		log.Printf("ERROR: failed to list audit trail for company %s: %v", companyID, err)
		return common.SendServerError(c, "failed to list audit trail")
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *CompanyHandlers) Delete(c echo.Context) error {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return common.SendValidationError(c, "companyId", err.Error())
	}

	if err := h.companySvc.Delete(c.Request().Context(), companyID, actorID(c)); err != nil {
		log.Printf("ERROR: failed to delete company %s: %v", companyID, err)
		return common.SendServerError(c, "failed to delete company")
	}
	return c.NoContent(http.StatusNoContent)
}
