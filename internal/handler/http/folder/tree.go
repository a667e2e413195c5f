package folder

import (
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	folderUC "feedkeep/internal/usecase/folder"
)

// TreeHandler implements GET /folders/tree: every folder owned by the
// caller.
type TreeHandler struct{ Svc *folderUC.Service }

func (h TreeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	folders, err := h.Svc.Tree(r.Context(), userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	out := make([]folderDTO, 0, len(folders))
	for _, f := range folders {
		out = append(out, toDTO(f))
	}
	respond.JSON(w, http.StatusOK, out)
}
