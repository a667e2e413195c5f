// Package auth implements the Auth (H) usecase: registration, login,
// logout, password change, and session listing, orchestrating
// repository.UserRepository/SessionRepository and the lower-level
// internal/service/auth primitives (password hashing, session
// mint/verify, CSRF tokens).
package auth

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
	svcauth "feedkeep/internal/service/auth"

	"github.com/google/uuid"
)

// Service orchestrates the account and session lifecycle behind
// /auth/*.
type Service struct {
	users    repository.UserRepository
	sessions *svcauth.Sessions

	minPasswordLen int
	maxPasswordLen int
}

func New(users repository.UserRepository, sessions *svcauth.Sessions, minPasswordLen, maxPasswordLen int) *Service {
	return &Service{users: users, sessions: sessions, minPasswordLen: minPasswordLen, maxPasswordLen: maxPasswordLen}
}

// Register creates a new user. The first registrant on an empty
// database becomes admin (§6.1, edge case 1).
func (s *Service) Register(ctx context.Context, username, password string) (*entity.User, error) {
	if err := entity.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := svcauth.ValidatePassword(password, s.minPasswordLen, s.maxPasswordLen); err != nil {
		return nil, err
	}

	normalized := (&entity.User{Username: username}).NormalizedUsername()
	if _, err := s.users.GetByUsername(ctx, normalized); err == nil {
		return nil, &entity.ConflictError{Resource: "user", Reason: "username already taken"}
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	hash, err := svcauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      count == 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and mints a session + CSRF token. Never
// distinguishes "unknown user" from "wrong password" in the returned
// error (§4.H).
func (s *Service) Login(ctx context.Context, username, password, userAgent, ip string) (*entity.User, string, string, error) {
	normalized := (&entity.User{Username: username}).NormalizedUsername()
	user, err := s.users.GetByUsername(ctx, normalized)
	if err != nil {
		return nil, "", "", &entity.InvalidCredentialsError{}
	}
	if err := svcauth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, "", "", err
	}

	_, cookieValue, err := s.sessions.Mint(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, "", "", fmt.Errorf("mint session: %w", err)
	}
	csrfToken, err := svcauth.NewCSRFToken(32)
	if err != nil {
		return nil, "", "", fmt.Errorf("mint csrf token: %w", err)
	}
	return user, cookieValue, csrfToken, nil
}

// Logout revokes the caller's own session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// ChangePassword re-hashes the caller's password and revokes every one
// of their sessions (§6.1), forcing re-login everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := svcauth.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		return err
	}
	if err := svcauth.ValidatePassword(newPassword, s.minPasswordLen, s.maxPasswordLen); err != nil {
		return err
	}
	hash, err := svcauth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return s.sessions.RevokeAllForUser(ctx, userID)
}

// ListSessions returns every active session belonging to userID.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*entity.Session, error) {
	return s.sessions.ListForUser(ctx, userID)
}

// RevokeSession revokes one session, refusing to touch a session that
// does not belong to userID.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	var owned bool
	for _, sess := range sessions {
		if sess.ID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		return &entity.NotFoundError{Resource: "session", ID: sessionID}
	}
	return s.sessions.Revoke(ctx, sessionID)
}
