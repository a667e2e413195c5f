package folder

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	folderUC "feedkeep/internal/usecase/folder"
)

// CreateHandler implements POST /folders.
type CreateHandler struct{ Svc *folderUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	f, err := h.Svc.Create(r.Context(), userID, req.Name, req.ParentID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(f))
}
