package article

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	uaUC "feedkeep/internal/usecase/userarticle"
)

// GetHandler implements GET /articles/{id}: article detail, marking it
// read as a side effect of viewing it (§6.1).
type GetHandler struct{ Svc *uaUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	detail, err := h.Svc.Get(r.Context(), userID, id)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	tags := make([]tagDTO, 0, len(detail.Tags))
	for _, t := range detail.Tags {
		tags = append(tags, tagDTO{ID: t.ID, Name: t.Name})
	}

	respond.JSON(w, http.StatusOK, detailDTO{
		ID: detail.Article.ID, Title: detail.Article.Title, Author: detail.Article.Author,
		Summary: detail.Article.Summary, Content: detail.Article.Content, MediaURL: detail.Article.MediaURL,
		CanonicalURL: detail.Article.CanonicalURL, PublishedAt: detail.Article.PublishedAt,
		IsRead: detail.State.IsRead, ReadLater: detail.State.ReadLater, ReadAt: detail.State.ReadAt,
		Tags: tags,
	})
}
