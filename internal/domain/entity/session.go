package entity

import "time"

// Session is a server-side record backing the session_id cookie (§6.2).
// CookieHash is SHA-256 of the full cookie value ("{id}.{secret}"),
// never the raw secret — verification recomputes the hash and compares
// it in constant time (see internal/service/auth).
type Session struct {
	ID         string
	UserID     string
	CookieHash string
	ExpiresAt  time.Time
	LastUsedAt time.Time
	CreatedAt  time.Time
	UserAgent  string
	IP         string
}

// Expired reports whether the session is past its expiry at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
