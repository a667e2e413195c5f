package article

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	uaUC "feedkeep/internal/usecase/userarticle"
)

// UpdateHandler implements PUT /articles/{id}: an explicit
// read/bookmark/tag-set change. Nil fields in the request body leave
// the corresponding state untouched; a nil tag_ids leaves the tag set
// untouched (§6.1).
type UpdateHandler struct{ Svc *uaUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsRead    *bool    `json:"is_read"`
		ReadLater *bool    `json:"read_later"`
		TagIDs    []string `json:"tag_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	state, err := h.Svc.Update(r.Context(), userID, id, req.IsRead, req.ReadLater, req.TagIDs)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"is_read": state.IsRead, "read_later": state.ReadLater, "read_at": state.ReadAt,
	})
}
