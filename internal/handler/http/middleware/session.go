package middleware

import (
	"context"
	"net/http"
	"strings"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/handler/http/respond"
	svcauth "feedkeep/internal/service/auth"
	"feedkeep/pkg/ratelimit"
)

// sessionContextKey is the context key the session middleware stores
// the authenticated user id and session id under.
type sessionContextKey string

const (
	userIDContextKey    sessionContextKey = "feedkeep_user_id"
	sessionIDContextKey sessionContextKey = "feedkeep_session_id"
)

// UserIDFromContext returns the authenticated caller's user id, set by
// Authenticate. Empty if the request was never authenticated (e.g. a
// public endpoint).
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

// SessionIDFromContext returns the verified session's id, set by
// Authenticate. Empty if the request was never authenticated.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}

// SessionVerifier is the subset of internal/service/auth.Sessions that
// Authenticate depends on.
type SessionVerifier interface {
	Verify(ctx context.Context, cookieValue string) (*entity.Session, error)
}

// Authenticate verifies the session cookie on every request whose
// path does not match a public prefix, and enforces the CSRF
// double-submit check on state-changing methods (§4.H, §6.2). On
// success the caller's user id is placed in the request context for
// downstream handlers via UserIDFromContext.
func Authenticate(sessions SessionVerifier, sessionCookieName, csrfCookieName string, publicPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				respond.DomainError(w, &entity.InvalidCredentialsError{})
				return
			}

			sess, err := sessions.Verify(r.Context(), cookie.Value)
			if err != nil {
				respond.DomainError(w, err)
				return
			}

			if isStateChanging(r.Method) {
				csrfCookie, err := r.Cookie(csrfCookieName)
				if err != nil || !svcauth.VerifyCSRF(csrfCookie.Value, r.Header.Get("X-CSRF-Token")) {
					respond.DomainError(w, &entity.InvalidCredentialsError{})
					return
				}
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, sess.UserID)
			ctx = context.WithValue(ctx, sessionIDContextKey, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func isPublicPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == prefix {
			return true
		}
	}
	return false
}

// SessionUserExtractor adapts UserRateLimiter's UserExtractor
// interface onto session-cookie auth: it reads the user id Authenticate
// already placed in the request context instead of re-parsing a JWT
// claim, since per-user limits only ever apply after Authenticate runs.
type SessionUserExtractor struct{ Tiers UserTierProvider }

func (e *SessionUserExtractor) ExtractUser(ctx context.Context) (userID string, tier ratelimit.UserTier, ok bool) {
	userID = UserIDFromContext(ctx)
	if userID == "" {
		return "", "", false
	}
	tiers := e.Tiers
	if tiers == nil {
		tiers = &DefaultTierProvider{}
	}
	return userID, tiers.GetUserTier(ctx, userID), true
}
