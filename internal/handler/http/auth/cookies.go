package auth

import "net/http"

// CookieConfig carries the cookie names/attributes the auth handlers
// need to set or clear the session_id/csrf_token pair (§6.2).
type CookieConfig struct {
	SessionCookieName string
	CSRFCookieName    string
	MaxAgeSeconds     int
	Secure            bool
}

func (c CookieConfig) setSessionCookies(w http.ResponseWriter, sessionValue, csrfValue string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.SessionCookieName,
		Value:    sessionValue,
		Path:     "/",
		MaxAge:   c.MaxAgeSeconds,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     c.CSRFCookieName,
		Value:    csrfValue,
		Path:     "/",
		MaxAge:   c.MaxAgeSeconds,
		HttpOnly: false,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: c.SessionCookieName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: c.Secure, SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: c.CSRFCookieName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: false, Secure: c.Secure, SameSite: http.SameSiteLaxMode,
	})
}
