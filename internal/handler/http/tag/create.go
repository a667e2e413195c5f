package tag

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	tagUC "feedkeep/internal/usecase/tag"
)

// CreateHandler implements POST /tags: get-or-create under the
// (user, sanitized name) uniqueness rule.
type CreateHandler struct{ Svc *tagUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	t, err := h.Svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(t))
}
