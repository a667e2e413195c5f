package search

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	searchUC "feedkeep/internal/usecase/search"
)

// FeedsHandler implements GET /search/feeds.
type FeedsHandler struct{ Svc *searchUC.Service }

func (h FeedsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit, offset := parseLimitOffset(r)
	page, err := h.Svc.SearchFeeds(r.Context(), userID, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// TagsHandler implements GET /search/tags.
type TagsHandler struct{ Svc *searchUC.Service }

func (h TagsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit, offset := parseLimitOffset(r)
	page, err := h.Svc.SearchTags(r.Context(), userID, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// FoldersHandler implements GET /search/folders.
type FoldersHandler struct{ Svc *searchUC.Service }

func (h FoldersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit, offset := parseLimitOffset(r)
	page, err := h.Svc.SearchFolders(r.Context(), userID, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// ArticlesHandler implements GET /search/articles.
type ArticlesHandler struct{ Svc *searchUC.Service }

func (h ArticlesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit, offset := parseLimitOffset(r)
	page, err := h.Svc.SearchArticles(r.Context(), userID, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}
