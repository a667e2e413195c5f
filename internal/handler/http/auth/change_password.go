package auth

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	authUC "feedkeep/internal/usecase/auth"
)

// ChangePasswordHandler implements POST /auth/change-password: re-hashes
// the caller's password and revokes every one of their sessions,
// forcing re-login everywhere (§6.1).
type ChangePasswordHandler struct {
	Svc     *authUC.Service
	Cookies CookieConfig
}

func (h ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.Svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respond.DomainError(w, err)
		return
	}

	h.Cookies.clearSessionCookies(w)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "password changed, please log in again"})
}
