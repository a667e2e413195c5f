package auth

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	authUC "feedkeep/internal/usecase/auth"
)

// LoginHandler implements POST /auth/login: verifies credentials and
// mints the session_id + csrf_token cookie pair (§4.H, §6.2).
type LoginHandler struct {
	Svc     *authUC.Service
	Cookies CookieConfig
	IPs     middleware.IPExtractor
}

func (h LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	ip, err := h.IPs.ExtractIP(r)
	if err != nil {
		ip = ""
	}
	user, cookieValue, csrfToken, err := h.Svc.Login(r.Context(), req.Username, req.Password, r.UserAgent(), ip)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	h.Cookies.setSessionCookies(w, cookieValue, csrfToken)
	respond.JSON(w, http.StatusOK, map[string]any{
		"user": userDTO{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin, CreatedAt: user.CreatedAt},
	})
}
