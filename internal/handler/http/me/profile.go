package me

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	profileUC "feedkeep/internal/usecase/profile"
)

// GetHandler implements GET /me.
type GetHandler struct{ Svc *profileUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	user, err := h.Svc.Get(r.Context(), userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toUserDTO(user))
}

type updateProfileRequest struct {
	Username string `json:"username"`
}

// UpdateHandler implements PUT /me. Currently the only mutable profile
// field is the username (§4.H account management); password changes
// go through POST /auth/change-password instead.
type UpdateHandler struct{ Svc *profileUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	user, err := h.Svc.UpdateUsername(r.Context(), userID, req.Username)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toUserDTO(user))
}
