package feed

import (
	"net/http"

	"feedkeep/internal/repository"
	feedUC "feedkeep/internal/usecase/feed"
	subUC "feedkeep/internal/usecase/subscription"
)

// Register registers every /feeds and /discover route with the given
// mux.
func Register(mux *http.ServeMux, subs *subUC.Service, discover *feedUC.Service, feeds repository.FeedRepository) {
	mux.Handle("GET /feeds", ListHandler{Subs: subs, Feeds: feeds})
	mux.Handle("PUT /feeds/{id}", UpdateHandler{Subs: subs, Feeds: feeds})
	mux.Handle("DELETE /feeds/{id}", DeleteHandler{Subs: subs})
	mux.Handle("POST /discover", DiscoverHandler{Svc: discover, Feeds: feeds})
}
