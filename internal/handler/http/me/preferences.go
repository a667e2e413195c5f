package me

import (
	"encoding/json"
	"net/http"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/middleware"
	"feedkeep/internal/handler/http/respond"
	profileUC "feedkeep/internal/usecase/profile"
)

// GetPreferencesHandler implements GET /me/preferences.
type GetPreferencesHandler struct{ Svc *profileUC.Service }

func (h GetPreferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	prefs, err := h.Svc.Preferences(r.Context(), userID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toPreferencesDTO(prefs))
}

// UpdatePreferencesHandler implements PUT /me/preferences: the request
// body is a flat key/value map so the caller can patch any subset of
// the §6.4 preference keys in one call.
type UpdatePreferencesHandler struct{ Svc *profileUC.Service }

func (h UpdatePreferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	updates := make(map[entity.PreferenceKey]string, len(body))
	for k, v := range body {
		updates[entity.PreferenceKey(k)] = v
	}

	userID := middleware.UserIDFromContext(r.Context())
	prefs, err := h.Svc.UpdatePreferences(r.Context(), userID, updates)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toPreferencesDTO(prefs))
}
