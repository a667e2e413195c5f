// Package auth provides the HTTP handlers behind /auth/*: register,
// login/logout, password change, and session listing, all operating
// over the session-cookie + CSRF-cookie pair instead of a bearer JWT
// (§4.H, §6.2).
package auth

import "time"

// userDTO is the JSON shape of an authenticated user.
type userDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// sessionDTO is one row of GET /auth/sessions.
type sessionDTO struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	UserAgent  string    `json:"user_agent"`
	IP         string    `json:"ip"`
	Current    bool      `json:"current"`
}
