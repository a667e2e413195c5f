package tag

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	tagUC "feedkeep/internal/usecase/tag"
)

// UpdateHandler implements PUT /tags/{id}: rename.
type UpdateHandler struct{ Svc *tagUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.Svc.Update(r.Context(), userID, id, req.Name); err != nil {
		respond.DomainError(w, err)
		return
	}
	t, err := h.Svc.Get(r.Context(), userID, id)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(t))
}
