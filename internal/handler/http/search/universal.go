package search

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	searchUC "feedkeep/internal/usecase/search"
)

// UniversalHandler implements GET /search: the weighted-merge search
// across feeds, tags, folders, and articles (§4.R).
type UniversalHandler struct{ Svc *searchUC.Service }

func (h UniversalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	query := r.URL.Query().Get("q")

	hits, err := h.Svc.UniversalSearch(r.Context(), userID, query)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"results": hits})
}
