package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	"feedkeep/internal/repository"
	subUC "feedkeep/internal/usecase/subscription"
)

// UpdateHandler implements PUT /feeds/{id}: rename (title override)
// and/or move to a different folder / toggle pinned (§6.1).
type UpdateHandler struct {
	Subs  *subUC.Service
	Feeds repository.FeedRepository
}

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     *string `json:"title"`
		FolderID  *string `json:"folder_id"`
		FolderSet bool    `json:"folder_set"`
		Pinned    *bool   `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if req.Title != nil {
		sub, err := h.Subs.Rename(r.Context(), userID, id, *req.Title)
		if err != nil {
			respond.DomainError(w, err)
			return
		}
		h.respondDTO(w, r, sub)
		return
	}

	sub, err := h.Subs.Move(r.Context(), userID, id, req.FolderID, req.Pinned, req.FolderSet)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	h.respondDTO(w, r, sub)
}

func (h UpdateHandler) respondDTO(w http.ResponseWriter, r *http.Request, sub *entity.Subscription) {
	f, err := h.Feeds.GetByID(r.Context(), sub.FeedID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(sub, f, time.Now().UTC()))
}
