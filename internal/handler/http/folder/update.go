package folder

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	folderUC "feedkeep/internal/usecase/folder"
)

// UpdateHandler implements PUT /folders/{id}: rename and/or move
// and/or toggle pinned, applied in that order when more than one field
// is present in the same request.
type UpdateHandler struct{ Svc *folderUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		ParentID    *string `json:"parent_id"`
		ParentIDSet bool    `json:"parent_id_set"`
		Pinned      *bool   `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	var f *entity.Folder
	var err error
	if req.Name != nil {
		f, err = h.Svc.Rename(r.Context(), userID, id, *req.Name)
		if err != nil {
			respond.DomainError(w, err)
			return
		}
	}
	if req.ParentIDSet {
		f, err = h.Svc.Move(r.Context(), userID, id, req.ParentID)
		if err != nil {
			respond.DomainError(w, err)
			return
		}
	}
	if req.Pinned != nil {
		f, err = h.Svc.Pin(r.Context(), userID, id, *req.Pinned)
		if err != nil {
			respond.DomainError(w, err)
			return
		}
	}
	if f == nil {
		respond.SafeError(w, http.StatusBadRequest, errNoFieldsGiven)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(f))
}
