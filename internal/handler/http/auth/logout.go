package auth

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	authUC "feedkeep/internal/usecase/auth"
)

// LogoutHandler implements POST /auth/logout: revokes the caller's own
// session and clears both cookies.
type LogoutHandler struct {
	Svc     *authUC.Service
	Cookies CookieConfig
}

func (h LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if err := h.Svc.Logout(r.Context(), sessionID); err != nil {
		respond.DomainError(w, err)
		return
	}
	h.Cookies.clearSessionCookies(w)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
