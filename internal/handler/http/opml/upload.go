package opml

import (
	"io"
	"net/http"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	opmlUC "feedkeep/internal/usecase/opml"
)

// UploadHandler implements POST /opml/upload: validates the uploaded
// file, persists it, and enqueues the import job (§4.O Upload).
type UploadHandler struct {
	Svc  *opmlUC.Service
	Jobs JobEnqueuer
}

func (h UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(entity.MaxOPMLFileSize); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, entity.MaxOPMLFileSize+1))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if len(content) > entity.MaxOPMLFileSize {
		respond.Error(w, http.StatusBadRequest, errFileTooLarge)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	imp, err := h.Svc.Upload(r.Context(), userID, header.Filename, content)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	payload := map[string]any{"import_id": imp.ID}
	if folderID := r.FormValue("folder_id"); folderID != "" {
		payload["folder_id"] = folderID
	}
	if _, err := h.Jobs.Enqueue(r.Context(), entity.JobTypeOpmlImport, payload); err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(imp))
}
