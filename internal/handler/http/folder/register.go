package folder

import (
	"net/http"

	folderUC "feedkeep/internal/usecase/folder"
)

// Register registers every /folders route with the given mux.
func Register(mux *http.ServeMux, svc *folderUC.Service) {
	mux.Handle("GET /folders/tree", TreeHandler{Svc: svc})
	mux.Handle("POST /folders", CreateHandler{Svc: svc})
	mux.Handle("PUT /folders/{id}", UpdateHandler{Svc: svc})
	mux.Handle("DELETE /folders/{id}", DeleteHandler{Svc: svc})
}
