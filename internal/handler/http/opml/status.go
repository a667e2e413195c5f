package opml

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	opmlUC "feedkeep/internal/usecase/opml"
)

// StatusHandler implements GET /opml/status/{id}: poll one import or
// export batch.
type StatusHandler struct{ Svc *opmlUC.Service }

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	rec, err := h.Svc.Status(r.Context(), id, userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(rec))
}
