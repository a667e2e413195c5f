package article

import (
	"net/http"

	"feedkeep/internal/common/pagination"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	uaUC "feedkeep/internal/usecase/userarticle"
)

// ListHandler implements GET /articles: a cursor-paginated, filterable
// feed of the caller's articles (§6.1).
type ListHandler struct{ Svc *uaUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	filter := parseFilter(r)

	items, next, err := h.Svc.List(r.Context(), userID, filter)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	out := make([]listItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, listItemDTO{
			ID: item.ID, Title: item.Title, Author: item.Author, Summary: item.Summary,
			MediaURL: item.MediaURL, SourceTags: item.SourceTags, PublishedAt: item.PublishedAt,
			SubscriptionID: item.SubscriptionID, FeedID: item.FeedID,
			IsRead: item.IsRead, ReadLater: item.ReadLater,
		})
	}

	var nextCursor string
	if next != nil {
		nextCursor = pagination.Encode(next)
	}
	respond.JSON(w, http.StatusOK, listResponseDTO{Data: out, NextCursor: nextCursor})
}
