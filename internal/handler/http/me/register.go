package me

import (
	"net/http"

	profileUC "feedkeep/internal/usecase/profile"
)

// Register registers every /me route with the given mux.
func Register(mux *http.ServeMux, svc *profileUC.Service) {
	mux.Handle("GET /me", GetHandler{Svc: svc})
	mux.Handle("PUT /me", UpdateHandler{Svc: svc})
	mux.Handle("GET /me/preferences", GetPreferencesHandler{Svc: svc})
	mux.Handle("PUT /me/preferences", UpdatePreferencesHandler{Svc: svc})
}
