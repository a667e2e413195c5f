package auth

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	authUC "feedkeep/internal/usecase/auth"
)

// Register registers every /auth/* route with the given mux. Signup
// and login are public (the session-auth middleware's allowlist must
// include the "/auth/" prefix); the rest run behind it.
func Register(mux *http.ServeMux, svc *authUC.Service, cookies CookieConfig, ips middleware.IPExtractor) {
	mux.Handle("POST /auth/register", SignupHandler{Svc: svc})
	mux.Handle("POST /auth/login", LoginHandler{Svc: svc, Cookies: cookies, IPs: ips})
	mux.Handle("POST /auth/logout", LogoutHandler{Svc: svc, Cookies: cookies})
	mux.Handle("POST /auth/change-password", ChangePasswordHandler{Svc: svc, Cookies: cookies})
	mux.Handle("GET /auth/sessions", ListSessionsHandler{Svc: svc})
	mux.Handle("DELETE /auth/sessions/{id}", RevokeSessionHandler{Svc: svc})
}
