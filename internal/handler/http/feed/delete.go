package feed

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	subUC "feedkeep/internal/usecase/subscription"
)

// DeleteHandler implements DELETE /feeds/{id}: unsubscribe, cleaning up
// any articles no longer reachable through the user's remaining feeds
// (§4.U Unsubscribe).
type DeleteHandler struct{ Subs *subUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.Subs.UnsubscribeByID(r.Context(), userID, id); err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}
