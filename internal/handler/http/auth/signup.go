package auth

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/respond"
	authUC "feedkeep/internal/usecase/auth"
)

// SignupHandler implements POST /auth/register. The first registrant
// on an empty database becomes admin (§6.1).
type SignupHandler struct{ Svc *authUC.Service }

func (h SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.Svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "user created",
		"user": userDTO{
			ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin, CreatedAt: user.CreatedAt,
		},
	})
}
