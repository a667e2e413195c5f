package opml

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	opmlUC "feedkeep/internal/usecase/opml"
)

// RollbackHandler implements POST /opml/{id}/rollback: deletes every
// subscription created by one import batch (§4.O Rollback).
type RollbackHandler struct{ Svc *opmlUC.Service }

func (h RollbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.Svc.Rollback(r.Context(), userID, id); err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "import rolled back"})
}
