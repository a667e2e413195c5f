// Package auth implements the Auth (H) component: password hashing,
// session mint/verify and cap eviction, CSRF token minting, and IP
// derivation (via the reused internal/handler/http/middleware IP
// extractor).
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"

	"github.com/google/uuid"
)

// cookieSecretLen is the raw byte length of the session cookie secret,
// encoded URL-safe base64 in the cookie value ("{uuid}.{secret}").
const cookieSecretLen = 32

// Sessions implements session mint/verify/revoke and the per-user
// session cap (Open Question decision #1: inclusive — eviction runs
// before the new session is inserted, so the user never holds more
// than MaxActiveSessions at once).
type Sessions struct {
	repo            repository.SessionRepository
	sessionTimeout  time.Duration
	maxActiveSessions int
}

func NewSessions(repo repository.SessionRepository, sessionTimeout time.Duration, maxActiveSessions int) *Sessions {
	return &Sessions{repo: repo, sessionTimeout: sessionTimeout, maxActiveSessions: maxActiveSessions}
}

// Mint creates a new session for userID, evicting the oldest
// (by last_used) session first if the user is already at the cap.
// Returns the session record and the cookie value to set
// ("{session_id}.{secret}") — the caller never sees CookieHash again.
func (s *Sessions) Mint(ctx context.Context, userID, userAgent, ip string) (*entity.Session, string, error) {
	count, err := s.repo.ActiveCount(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("count active sessions: %w", err)
	}
	if count >= s.maxActiveSessions {
		oldest, err := s.repo.OldestForUser(ctx, userID)
		if err != nil {
			return nil, "", fmt.Errorf("find oldest session: %w", err)
		}
		if err := s.repo.Delete(ctx, oldest.ID); err != nil {
			return nil, "", fmt.Errorf("evict oldest session: %w", err)
		}
	}

	secret := make([]byte, cookieSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, "", fmt.Errorf("generate session secret: %w", err)
	}
	id := uuid.NewString()
	cookieValue := id + "." + base64.RawURLEncoding.EncodeToString(secret)

	now := time.Now().UTC()
	sess := &entity.Session{
		ID:         id,
		UserID:     userID,
		CookieHash: hashCookie(cookieValue),
		ExpiresAt:  now.Add(s.sessionTimeout),
		LastUsedAt: now,
		CreatedAt:  now,
		UserAgent:  userAgent,
		IP:         ip,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	return sess, cookieValue, nil
}

// Verify parses a session cookie value, looks up the session by its
// embedded id, and compares the stored hash in constant time. On
// success, last_used is updated. Returns entity.InvalidCredentialsError
// for any malformed, unknown, mismatched, or expired cookie.
func (s *Sessions) Verify(ctx context.Context, cookieValue string) (*entity.Session, error) {
	id, _, ok := strings.Cut(cookieValue, ".")
	if !ok || id == "" {
		return nil, &entity.InvalidCredentialsError{}
	}

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, &entity.InvalidCredentialsError{}
	}

	want := hashCookie(cookieValue)
	if subtle.ConstantTimeCompare([]byte(want), []byte(sess.CookieHash)) != 1 {
		return nil, &entity.InvalidCredentialsError{}
	}

	now := time.Now().UTC()
	if sess.Expired(now) {
		return nil, &entity.InvalidCredentialsError{}
	}

	if err := s.repo.Touch(ctx, sess.ID, now); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	sess.LastUsedAt = now
	return sess, nil
}

func (s *Sessions) Revoke(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

func (s *Sessions) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.repo.DeleteAllForUser(ctx, userID)
}

func (s *Sessions) ListForUser(ctx context.Context, userID string) ([]*entity.Session, error) {
	return s.repo.ListForUser(ctx, userID)
}

func hashCookie(cookieValue string) string {
	sum := sha256.Sum256([]byte(cookieValue))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewCSRFToken generates a random URL-safe token of the configured
// byte length (CSRF_TOKEN_LENGTH), set as a readable (non-HttpOnly)
// cookie so the client can echo it back in a request header.
func NewCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerifyCSRF compares the cookie and header CSRF values in constant
// time, per §4.H's double-submit cookie check on state-changing
// requests.
func VerifyCSRF(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(headerValue)) == 1
}
