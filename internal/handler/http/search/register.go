package search

import (
	"net/http"

	searchUC "feedkeep/internal/usecase/search"
)

// Register registers every /search route with the given mux.
func Register(mux *http.ServeMux, svc *searchUC.Service) {
	mux.Handle("GET /search", UniversalHandler{Svc: svc})
	mux.Handle("GET /search/feeds", FeedsHandler{Svc: svc})
	mux.Handle("GET /search/tags", TagsHandler{Svc: svc})
	mux.Handle("GET /search/folders", FoldersHandler{Svc: svc})
	mux.Handle("GET /search/articles", ArticlesHandler{Svc: svc})
}
