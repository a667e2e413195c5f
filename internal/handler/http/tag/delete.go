package tag

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	tagUC "feedkeep/internal/usecase/tag"
)

// DeleteHandler implements DELETE /tags/{id}.
type DeleteHandler struct{ Svc *tagUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.Svc.Delete(r.Context(), userID, id); err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "tag deleted"})
}
