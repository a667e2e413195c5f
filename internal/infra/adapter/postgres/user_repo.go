package postgres

import (
	"context"
	"fmt"

	"feedkeep/internal/domain/entity"

	"github.com/jackc/pgx/v5"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const sql = `
		INSERT INTO auth.users (id, username, normalized_username, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.q(ctx).Exec(ctx, sql,
		u.ID, u.Username, u.NormalizedUsername(), u.PasswordHash, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return &entity.ConflictError{Resource: "user", Reason: "username already taken"}
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const sql = `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM auth.users WHERE id = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, id)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "user", ID: id}
	}
	return u, err
}

func (r *UserRepo) GetByUsername(ctx context.Context, normalizedUsername string) (*entity.User, error) {
	const sql = `
		SELECT id, username, password_hash, is_admin, created_at, updated_at
		FROM auth.users WHERE normalized_username = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, normalizedUsername)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "user"}
	}
	return u, err
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	const sql = `SELECT count(*) FROM auth.users`
	var n int
	if err := r.db.q(ctx).QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	const sql = `UPDATE auth.users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}

func (r *UserRepo) UpdateUsername(ctx context.Context, userID, username string) error {
	const sql = `
		UPDATE auth.users SET username = $2, normalized_username = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, userID, username, (&entity.User{Username: username}).NormalizedUsername())
	if isUniqueViolation(err) {
		return &entity.ConflictError{Resource: "user", Reason: "username already taken"}
	}
	if err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}

// GetPreferences returns the stored preference row, or the documented
// defaults (entity.DefaultPreferences) when the user has never saved
// one, per §6.4's "defaults applied on read, not seeded" rule.
func (r *UserRepo) GetPreferences(ctx context.Context, userID string) (*entity.UserPreferences, error) {
	const sql = `
		SELECT user_id, theme, show_article_thumbnails, app_layout, article_layout,
		       font_spacing, font_size, feed_sort_order, show_feed_favicons,
		       date_format, time_format, language, auto_mark_as_read,
		       estimated_reading_time, show_summaries
		FROM personalization.user_preferences WHERE user_id = $1`
	var p entity.UserPreferences
	err := r.db.q(ctx).QueryRow(ctx, sql, userID).Scan(
		&p.UserID, &p.Theme, &p.ShowArticleThumbnails, &p.AppLayout, &p.ArticleLayout,
		&p.FontSpacing, &p.FontSize, &p.FeedSortOrder, &p.ShowFeedFavicons,
		&p.DateFormat, &p.TimeFormat, &p.Language, &p.AutoMarkAsRead,
		&p.EstimatedReadingTime, &p.ShowSummaries)
	if err == pgx.ErrNoRows {
		defaults := entity.DefaultPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &p, nil
}

func (r *UserRepo) UpsertPreferences(ctx context.Context, prefs *entity.UserPreferences) error {
	const sql = `
		INSERT INTO personalization.user_preferences
			(user_id, theme, show_article_thumbnails, app_layout, article_layout,
			 font_spacing, font_size, feed_sort_order, show_feed_favicons,
			 date_format, time_format, language, auto_mark_as_read,
			 estimated_reading_time, show_summaries)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			show_article_thumbnails = EXCLUDED.show_article_thumbnails,
			app_layout = EXCLUDED.app_layout,
			article_layout = EXCLUDED.article_layout,
			font_spacing = EXCLUDED.font_spacing,
			font_size = EXCLUDED.font_size,
			feed_sort_order = EXCLUDED.feed_sort_order,
			show_feed_favicons = EXCLUDED.show_feed_favicons,
			date_format = EXCLUDED.date_format,
			time_format = EXCLUDED.time_format,
			language = EXCLUDED.language,
			auto_mark_as_read = EXCLUDED.auto_mark_as_read,
			estimated_reading_time = EXCLUDED.estimated_reading_time,
			show_summaries = EXCLUDED.show_summaries`
	_, err := r.db.q(ctx).Exec(ctx, sql,
		prefs.UserID, prefs.Theme, prefs.ShowArticleThumbnails, prefs.AppLayout, prefs.ArticleLayout,
		prefs.FontSpacing, prefs.FontSize, prefs.FeedSortOrder, prefs.ShowFeedFavicons,
		prefs.DateFormat, prefs.TimeFormat, prefs.Language, prefs.AutoMarkAsRead,
		prefs.EstimatedReadingTime, prefs.ShowSummaries)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
