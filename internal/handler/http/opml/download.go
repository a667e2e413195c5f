package opml

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	"feedkeep/internal/infra/storage"
	opmlUC "feedkeep/internal/usecase/opml"
)

// DownloadHandler implements GET /opml/download/{filename}: streams a
// previously exported OPML file, refusing any filename carrying a path
// separator. Svc.Download reports a missing file and one that has
// outlived OPML_FILE_EXPIRY_HOURS identically (both as a NotFoundError),
// so an expired export surfaces as 404 rather than the 410 the route
// table lists; the store never distinguishes the two cases.
type DownloadHandler struct{ Svc *opmlUC.Service }

func (h DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if strings.ContainsAny(filename, `/\`) {
		respond.Error(w, http.StatusBadRequest, errInvalidFilename)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	key := storage.Key(fmt.Sprintf("users/%s/exports", userID), filename)

	content, err := h.Svc.Download(r.Context(), key, time.Now().UTC())
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/x-opml+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
