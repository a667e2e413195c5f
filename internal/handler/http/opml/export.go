package opml

import (
	"net/http"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	opmlUC "feedkeep/internal/usecase/opml"
)

// ExportHandler implements POST /opml/export: records a pending export
// batch and enqueues the export job (§4.O Export).
type ExportHandler struct {
	Svc  *opmlUC.Service
	Jobs JobEnqueuer
}

func (h ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	exp, err := h.Svc.CreateExportJob(r.Context(), userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	if _, err := h.Jobs.Enqueue(r.Context(), entity.JobTypeOpmlExport, map[string]any{
		"export_id": exp.ID, "user_id": userID,
	}); err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(exp))
}
