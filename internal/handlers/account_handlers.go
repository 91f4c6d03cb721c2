package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"pbxadmin/internal/common"
	"pbxadmin/internal/models"
	"pbxadmin/internal/services"
)

type AccountHandlers struct {
	accountSvc services.AccountService
}

func NewAccountHandlers(accountSvc services.AccountService) *AccountHandlers {
	return &AccountHandlers{accountSvc: accountSvc}
}

type CreateAccountRequest struct {
	Email string `json:"email"`
}

// CreateAccountResponse carries the temporary password exactly once.
// It is never persisted in clear text and cannot be retrieved again.
type CreateAccountResponse struct {
	Account      *models.Account `json:"account"`
	TempPassword string          `json:"temp_password"`
}

func (h *AccountHandlers) Get(c echo.Context) error {
	_, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	account, err := h.accountSvc.GetForUser(c.Request().Context(), userID)
	if err != nil {
		log.Printf("ERROR: failed to load editor account for user %s: %v", userID, err)
		return common.SendServerError(c, "failed to load editor account")
	}
	if account == nil {
		return common.SendNotFoundError(c, "editor account")
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHandlers) Create(c echo.Context) error {
	companyID, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "invalid request body")
	}
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}

	account, tempPassword, err := h.accountSvc.CreateForUser(c.Request().Context(), userID, companyID, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrAccountExists) {
			return common.SendConflictError(c, "Editor account already exists.")
		}
		log.Printf("ERROR: failed to create editor account for user %s: %v", userID, err)
		return common.SendServerError(c, "failed to create editor account")
	}
	return c.JSON(http.StatusCreated, CreateAccountResponse{
		Account:      account,
		TempPassword: tempPassword,
	})
}

func (h *AccountHandlers) Delete(c echo.Context) error {
	_, userID, err := userPathIDs(c)
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.accountSvc.RemoveForUser(c.Request().Context(), userID); err != nil {
		log.Printf("ERROR: failed to remove editor account for user %s: %v", userID, err)
		return common.SendServerError(c, "failed to remove editor account")
	}
	return c.NoContent(http.StatusNoContent)
}
