package auth

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	authUC "feedkeep/internal/usecase/auth"
)

// ListSessionsHandler implements GET /auth/sessions, flagging the
// session the request itself is authenticated with.
type ListSessionsHandler struct{ Svc *authUC.Service }

func (h ListSessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	current := middleware.SessionIDFromContext(r.Context())

	sessions, err := h.Svc.ListSessions(r.Context(), userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionDTO{
			ID: s.ID, CreatedAt: s.CreatedAt, LastUsedAt: s.LastUsedAt, ExpiresAt: s.ExpiresAt,
			UserAgent: s.UserAgent, IP: s.IP, Current: s.ID == current,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

// RevokeSessionHandler implements DELETE /auth/sessions/{id}.
type RevokeSessionHandler struct{ Svc *authUC.Service }

func (h RevokeSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	sessionID := r.PathValue("id")

	if err := h.Svc.RevokeSession(r.Context(), userID, sessionID); err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "session revoked"})
}
