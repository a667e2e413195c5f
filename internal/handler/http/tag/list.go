package tag

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	tagUC "feedkeep/internal/usecase/tag"
)

// ListHandler implements GET /tags.
type ListHandler struct{ Svc *tagUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	tags, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	out := make([]tagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, toDTO(t))
	}
	respond.JSON(w, http.StatusOK, out)
}
