package postgres

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"

	"github.com/jackc/pgx/v5"
)

// SessionRepo implements repository.SessionRepository, grounded on
// original_source's session.py session-cap eviction and the teacher's
// adapter idioms for simple CRUD tables.
type SessionRepo struct{ db *DB }

func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Create(ctx context.Context, s *entity.Session) error {
	const sql = `
		INSERT INTO auth.sessions (id, user_id, cookie_hash, expires_at, last_used_at, created_at, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.q(ctx).Exec(ctx, sql,
		s.ID, s.UserID, s.CookieHash, s.ExpiresAt, s.LastUsedAt, s.CreatedAt, s.UserAgent, s.IP)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	const sql = `
		SELECT id, user_id, cookie_hash, expires_at, last_used_at, created_at, user_agent, ip
		FROM auth.sessions WHERE id = $1`
	var s entity.Session
	err := r.db.q(ctx).QueryRow(ctx, sql, id).
		Scan(&s.ID, &s.UserID, &s.CookieHash, &s.ExpiresAt, &s.LastUsedAt, &s.CreatedAt, &s.UserAgent, &s.IP)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Touch updates last_used_at on successful verification (§4.H session
// verify step).
func (r *SessionRepo) Touch(ctx context.Context, id string, lastUsed time.Time) error {
	const sql = `UPDATE auth.sessions SET last_used_at = $2 WHERE id = $1`
	_, err := r.db.q(ctx).Exec(ctx, sql, id, lastUsed)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM auth.sessions WHERE id = $1`
	if _, err := r.db.q(ctx).Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	const sql = `DELETE FROM auth.sessions WHERE user_id = $1`
	if _, err := r.db.q(ctx).Exec(ctx, sql, userID); err != nil {
		return fmt.Errorf("delete all sessions for user: %w", err)
	}
	return nil
}

func (r *SessionRepo) ListForUser(ctx context.Context, userID string) ([]*entity.Session, error) {
	const sql = `
		SELECT id, user_id, cookie_hash, expires_at, last_used_at, created_at, user_agent, ip
		FROM auth.sessions WHERE user_id = $1 ORDER BY last_used_at DESC`
	rows, err := r.db.q(ctx).Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions for user: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.Session
	for rows.Next() {
		var s entity.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.CookieHash, &s.ExpiresAt, &s.LastUsedAt, &s.CreatedAt, &s.UserAgent, &s.IP); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) ActiveCount(ctx context.Context, userID string) (int, error) {
	const sql = `SELECT count(*) FROM auth.sessions WHERE user_id = $1 AND expires_at > now()`
	var n int
	if err := r.db.q(ctx).QueryRow(ctx, sql, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

// OldestForUser returns the session with the oldest last_used_at for
// userID, the eviction candidate when the session cap is reached
// (§4.H, inclusive-cap Open Question decision).
func (r *SessionRepo) OldestForUser(ctx context.Context, userID string) (*entity.Session, error) {
	const sql = `
		SELECT id, user_id, cookie_hash, expires_at, last_used_at, created_at, user_agent, ip
		FROM auth.sessions WHERE user_id = $1 ORDER BY last_used_at ASC LIMIT 1`
	var s entity.Session
	err := r.db.q(ctx).QueryRow(ctx, sql, userID).
		Scan(&s.ID, &s.UserID, &s.CookieHash, &s.ExpiresAt, &s.LastUsedAt, &s.CreatedAt, &s.UserAgent, &s.IP)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "session"}
	}
	if err != nil {
		return nil, fmt.Errorf("oldest session for user: %w", err)
	}
	return &s, nil
}
