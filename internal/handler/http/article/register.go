package article

import (
	"net/http"

	uaUC "feedkeep/internal/usecase/userarticle"
)

// Register registers every /articles route with the given mux. All
// routes run behind the session-auth middleware.
func Register(mux *http.ServeMux, svc *uaUC.Service) {
	mux.Handle("GET /articles", ListHandler{Svc: svc})
	mux.Handle("GET /articles/{id}", GetHandler{Svc: svc})
	mux.Handle("PUT /articles/{id}", UpdateHandler{Svc: svc})
	mux.Handle("POST /articles/mark-as-read", MarkAsReadHandler{Svc: svc})
}
