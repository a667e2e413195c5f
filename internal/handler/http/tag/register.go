package tag

import (
	"net/http"

	tagUC "feedkeep/internal/usecase/tag"
)

// Register registers every /tags route with the given mux.
func Register(mux *http.ServeMux, svc *tagUC.Service) {
	mux.Handle("GET /tags", ListHandler{Svc: svc})
	mux.Handle("POST /tags", CreateHandler{Svc: svc})
	mux.Handle("PUT /tags/{id}", UpdateHandler{Svc: svc})
	mux.Handle("DELETE /tags/{id}", DeleteHandler{Svc: svc})
}
