package session

import (
	"encoding/json"
	"net/http"
	"net/url"

	"pbxadmin/internal/models"
)

const (
	// CookieName is the session cookie shared with the dashboard UI.
	CookieName = "app_session"
	// CookieMaxAge is eight hours, in seconds.
	CookieMaxAge = 8 * 60 * 60
)

// Session is the payload stored in the cookie. It is plain JSON,
// URL-percent-encoded, not signed; the format predates this service
// and is shared with the UI, so it stays as-is.
type Session struct {
	AccountID string             `json:"accountId"`
	UserID    *string            `json:"userId"`
	CompanyID *string            `json:"companyId"`
	Role      models.AccountRole `json:"role"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.AccountRoleAdmin
}

// Issue builds the session payload for a freshly authenticated account.
func Issue(account *models.Account) *Session {
	sess := &Session{
		AccountID: account.ID.String(),
		Role:      account.Role,
	}
	if account.UserID != nil {
		id := account.UserID.String()
		sess.UserID = &id
	}
	if account.CompanyID != nil {
		id := account.CompanyID.String()
		sess.CompanyID = &id
	}
	return sess
}

// Parse deserializes a raw cookie value. It fails closed: any decode
// failure, malformed JSON or unknown role yields nil, never an error.
func Parse(raw string) *Session {
	if raw == "" {
		return nil
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(decoded), &sess); err != nil {
		return nil
	}
	if !sess.Role.Valid() {
		return nil
	}
	return &sess
}

// Cookie serializes the session into the cookie handed to the client.
func Cookie(sess *Session, secure bool) (*http.Cookie, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape(string(data)),
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredCookie clears the session on the client.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
