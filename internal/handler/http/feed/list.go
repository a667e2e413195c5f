package feed

import (
	"net/http"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	"feedkeep/internal/repository"
	subUC "feedkeep/internal/usecase/subscription"
)

// ListHandler implements GET /feeds: the caller's subscriptions,
// optionally filtered to one folder (§6.1).
type ListHandler struct {
	Subs  *subUC.Service
	Feeds repository.FeedRepository
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}

	subs, err := h.Subs.ListForUserInFolder(r.Context(), userID, folderID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	now := time.Now().UTC()
	out := make([]subscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		f, err := h.Feeds.GetByID(r.Context(), sub.FeedID)
		if err != nil {
			continue
		}
		out = append(out, toDTO(sub, f, now))
	}

	respond.JSON(w, http.StatusOK, out)
}

func toDTO(sub *entity.Subscription, f *entity.Feed, now time.Time) subscriptionDTO {
	return subscriptionDTO{
		ID: sub.ID, FeedID: f.ID, Title: sub.DisplayTitle(f.Title), CanonicalURL: f.CanonicalURL,
		Website: f.Website, FolderID: sub.FolderID, Pinned: sub.Pinned, UnreadCount: sub.UnreadCount,
		Status: string(f.Status(now)), CreatedAt: sub.CreatedAt,
	}
}
