package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pbxadmin/internal/common"
	"pbxadmin/internal/models"
	"pbxadmin/internal/services"
)

type UserHandlers struct {
	userSvc services.UserService
}

func NewUserHandlers(userSvc services.UserService) *UserHandlers {
	return &UserHandlers{userSvc: userSvc}
}

type UserRequest struct {
	Name             string `json:"name"`
	Extension        string `json:"extension"`
	Email            string `json:"email"`
	OutboundCallerID string `json:"outbound_caller_id"`
	DID              string `json:"did"`
}

// sessionRole reads the role the guard derived from the cookie. The
// request payload never carries a role.
func sessionRole(c echo.Context) models.AccountRole {
	sess, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok || sess == nil {
		return ""
	}
	return sess.Role
}

func userPathIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, err := common.ValidateUUID(c.Param("userId"), "user id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return companyID, userID, nil
}

func respondUserError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrNameRequired):
		return common.SendValidationError(c, "name", "name is required")
	case services.IsExtensionInUse(err):
		return common.SendConflictError(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return common.SendNotFoundError(c, "user")
	case errors.Is(err, services.ErrPendingUserNotFound):
		return common.SendNotFoundError(c, "pending user")
	case errors.Is(err, services.ErrAdminOnly):
		return common.SendForbiddenError(c, "admin role required")
	default:
		log.Printf("ERROR: failed to %s: %v", action, err)
		return common.SendServerError(c, "failed to "+action)
	}
}

func (h *UserHandlers) List(c echo.Context) error {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return common.SendValidationError(c, "companyId", err.Error())
	}

	grouped, err := h.userSvc.ListByCompany(c.Request().Context(), companyID, c.QueryParam("search"))
	if err != nil {
		log.Printf("ERROR: failed to list users for company %s: %v", companyID, err)
		return common.SendServerError(c, "failed to list users")
	}
	return c.JSON(http.StatusOK, grouped)
}

func (h *UserHandlers) Create(c echo.Context) error {
	companyID, err := common.ValidateUUID(c.Param("companyId"), "company id")
	if err != nil {
		return common.SendValidationError(c, "companyId", err.Error())
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "invalid request body")
	}

	user, err := h.userSvc.Create(c.Request().Context(), services.CreateUserInput{
		CompanyID:        companyID,
		Name:             req.Name,
		Extension:        req.Extension,
		Email:            req.Email,
		OutboundCallerID: req.OutboundCallerID,
		DID:              req.DID,
	}, sessionRole(c))
	if err != nil {
		return respondUserError(c, err, "create user")
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) Update(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "invalid request body")
	}

	user, err := h.userSvc.Update(c.Request().Context(), services.UpdateUserInput{
		CompanyID:        companyID,
		UserID:           userID,
		Name:             req.Name,
		Extension:        req.Extension,
		Email:            req.Email,
		OutboundCallerID: req.OutboundCallerID,
		DID:              req.DID,
	}, sessionRole(c))
	if err != nil {
		return respondUserError(c, err, "update user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) Approve(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.userSvc.Approve(c.Request().Context(), companyID, userID, actorID(c)); err != nil {
		return respondUserError(c, err, "approve user")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "approved"})
}

func (h *UserHandlers) Reject(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.userSvc.Reject(c.Request().Context(), companyID, userID, actorID(c)); err != nil {
		return respondUserError(c, err, "reject user")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *UserHandlers) SoftDelete(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.userSvc.SoftDelete(c.Request().Context(), companyID, userID); err != nil {
		return respondUserError(c, err, "delete user")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *UserHandlers) Restore(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.userSvc.Restore(c.Request().Context(), companyID, userID); err != nil {
		return respondUserError(c, err, "restore user")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "active"})
}

func (h *UserHandlers) HardDelete(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.userSvc.HardDelete(c.Request().Context(), companyID, userID, sessionRole(c), actorID(c)); err != nil {
		return respondUserError(c, err, "permanently delete user")
	}
	return c.NoContent(http.StatusNoContent)
}
