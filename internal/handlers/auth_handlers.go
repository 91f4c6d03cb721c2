package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pbxadmin/internal/caching"
	"pbxadmin/internal/common"
	"pbxadmin/internal/services"
	"pbxadmin/internal/session"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

type AuthHandlers struct {
	accountSvc    services.AccountService
	cacheSvc      caching.CacheService
	secureCookies bool
}

func NewAuthHandlers(accountSvc services.AccountService, cacheSvc caching.CacheService, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{
		accountSvc:    accountSvc,
		cacheSvc:      cacheSvc,
		secureCookies: secureCookies,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Role      string  `json:"role"`
	CompanyID *string `json:"companyId"`
}

func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "invalid request body")
	}

	limited, err := h.cacheSvc.IsRateLimited(c.Request().Context(), "login:"+c.RealIP(), loginRateLimit, loginRateWindow)
	if err != nil {
		// Rate limiter outage must not lock everyone out.
		log.Printf("WARN: login rate limiter unavailable: %v", err)
	} else if limited {
		return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many login attempts, try again later", nil))
	}

	account, err := h.accountSvc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return common.SendUnauthorizedError(c)
		}
		log.Printf("ERROR: login failed: %v", err)
		return common.SendServerError(c, "login failed")
	}

	sess := session.Issue(account)
	cookie, err := session.Cookie(sess, h.secureCookies)
	if err != nil {
		return common.SendServerError(c, "login failed")
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, LoginResponse{
		Role:      string(sess.Role),
		CompanyID: sess.CompanyID,
	})
}

// Logout clears the cookie and sends the browser back to the login
// page regardless of whether a session existed.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(session.ExpiredCookie(h.secureCookies))
	return c.Redirect(http.StatusSeeOther, "/login")
}
