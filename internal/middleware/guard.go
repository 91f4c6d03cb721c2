package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pbxadmin/internal/common"
	"pbxadmin/internal/models"
	"pbxadmin/internal/session"
)

const loginPath = "/login"

// SessionGuard enforces the dashboard access rules: guests are sent
// to the login page, admins go anywhere, editors stay inside their
// own company. The role always comes from the parsed cookie, never
// from anything the client sent in the request body.
type SessionGuard struct{}

func NewSessionGuard() *SessionGuard {
	return &SessionGuard{}
}

// RequireSession parses the session cookie and scopes the request.
// Editors hitting the company list or another company's pages are
// redirected to their own user list rather than rejected, matching
// the dashboard's navigation.
func (g *SessionGuard) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := sessionFromRequest(c)
			if sess == nil {
				return c.Redirect(http.StatusSeeOther, loginPath)
			}

			if sess.Role == models.AccountRoleEditor {
				if sess.CompanyID == nil {
					return c.Redirect(http.StatusSeeOther, loginPath)
				}
				own := *sess.CompanyID
				if redirect := editorRedirect(c, own); redirect != "" {
					return c.Redirect(http.StatusSeeOther, redirect)
				}
			}

			ctx := common.WithSession(c.Request().Context(), sess)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAdmin runs inside RequireSession and rejects non-admins.
func (g *SessionGuard) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := common.GetSessionFromContext(c.Request().Context())
			if !ok || sess == nil {
				return common.SendUnauthorizedError(c)
			}
			if !sess.IsAdmin() {
				return common.SendForbiddenError(c, "admin role required")
			}
			return next(c)
		}
	}
}

func sessionFromRequest(c echo.Context) *session.Session {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return session.Parse(cookie.Value)
}

// editorRedirect returns the path an editor should land on instead of
// the one requested, or "" when the request is within scope.
func editorRedirect(c echo.Context, ownCompanyID string) string {
	ownUsers := "/dashboard/companies/" + ownCompanyID + "/users"

	path := c.Request().URL.Path
	if path == "/dashboard/companies" || path == "/dashboard/companies/" {
		return ownUsers
	}
	if strings.HasPrefix(path, "/dashboard/companies/") {
		if target := c.Param("companyId"); target != "" && target != ownCompanyID {
			return ownUsers
		}
	}
	return ""
}
