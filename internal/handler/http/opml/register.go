package opml

import (
	"net/http"

	opmlUC "feedkeep/internal/usecase/opml"
)

// Register registers every /opml route with the given mux.
func Register(mux *http.ServeMux, svc *opmlUC.Service, jobs JobEnqueuer) {
	mux.Handle("POST /opml/upload", UploadHandler{Svc: svc, Jobs: jobs})
	mux.Handle("POST /opml/export", ExportHandler{Svc: svc, Jobs: jobs})
	mux.Handle("GET /opml/status/{id}", StatusHandler{Svc: svc})
	mux.Handle("POST /opml/{id}/rollback", RollbackHandler{Svc: svc})
	mux.Handle("GET /opml/download/{filename}", DownloadHandler{Svc: svc})
}
