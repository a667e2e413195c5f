package article

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	uaUC "feedkeep/internal/usecase/userarticle"
)

// MarkAsReadHandler implements POST /articles/mark-as-read: a bulk
// read-state change over every article matching the same filter set
// GET /articles accepts (§6.1).
type MarkAsReadHandler struct{ Svc *uaUC.Service }

func (h MarkAsReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	filter := parseFilter(r)

	updated, err := h.Svc.MarkAsRead(r.Context(), userID, filter)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]int{"updated": updated})
}
