package postgres

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"

	"github.com/jackc/pgx/v5"
)

// FeedRepo implements repository.FeedRepository.
type FeedRepo struct{ db *DB }

func NewFeedRepo(db *DB) *FeedRepo { return &FeedRepo{db: db} }

func (r *FeedRepo) Create(ctx context.Context, f *entity.Feed) error {
	const sql = `
		INSERT INTO content.feeds
			(id, canonical_url, title, description, language, website, type,
			 last_fetched_at, last_update, last_error, last_error_at, error_count,
			 active, latest_articles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.q(ctx).Exec(ctx, sql,
		f.ID, f.CanonicalURL, f.Title, f.Description, f.Language, f.Website, f.Type,
		f.LastFetchedAt, f.LastUpdate, f.LastError, f.LastErrorAt, f.ErrorCount,
		f.Active, f.LatestArticles, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	return nil
}

func (r *FeedRepo) GetByID(ctx context.Context, id string) (*entity.Feed, error) {
	const sql = selectFeedSQL + ` WHERE id = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, id)
	f, err := scanFeed(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "feed", ID: id}
	}
	return f, err
}

func (r *FeedRepo) GetByCanonicalURL(ctx context.Context, canonicalURL string) (*entity.Feed, error) {
	const sql = selectFeedSQL + ` WHERE canonical_url = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, canonicalURL)
	f, err := scanFeed(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "feed"}
	}
	return f, err
}

func (r *FeedRepo) Update(ctx context.Context, f *entity.Feed) error {
	const sql = `
		UPDATE content.feeds SET
			title = $2, description = $3, language = $4, website = $5, type = $6,
			last_fetched_at = $7, last_update = $8, last_error = $9, last_error_at = $10,
			error_count = $11, active = $12, latest_articles = $13
		WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql,
		f.ID, f.Title, f.Description, f.Language, f.Website, f.Type,
		f.LastFetchedAt, f.LastUpdate, f.LastError, f.LastErrorAt,
		f.ErrorCount, f.Active, f.LatestArticles)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "feed", ID: f.ID}
	}
	return nil
}

// ListActiveWithSubscribers pages through feeds that have at least one
// active subscriber, the driving set for the scheduled refresh cycle
// (§4.F).
func (r *FeedRepo) ListActiveWithSubscribers(ctx context.Context, offset, limit int) ([]*entity.Feed, error) {
	const sql = `
		SELECT DISTINCT f.id, f.canonical_url, f.title, f.description, f.language, f.website, f.type,
		       f.last_fetched_at, f.last_update, f.last_error, f.last_error_at, f.error_count,
		       f.active, f.latest_articles, f.created_at
		FROM content.feeds f
		JOIN personalization.subscriptions s ON s.feed_id = f.id AND s.active = true
		WHERE f.active = true
		ORDER BY f.id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.q(ctx).Query(ctx, sql, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*entity.Feed
	for rows.Next() {
		f, err := scanFeedRows(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// MarkOrphanedInactive deactivates any feed with zero active
// subscribers, per the orphan-sweep cron entry (§6.5).
func (r *FeedRepo) MarkOrphanedInactive(ctx context.Context) (int64, error) {
	const sql = `
		UPDATE content.feeds f SET active = false
		WHERE f.active = true
		  AND NOT EXISTS (
		    SELECT 1 FROM personalization.subscriptions s
		    WHERE s.feed_id = f.id AND s.active = true
		  )`
	tag, err := r.db.q(ctx).Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("mark orphaned feeds inactive: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *FeedRepo) RecordFetchSuccess(ctx context.Context, feedID string, fetchedAt time.Time) error {
	const sql = `
		UPDATE content.feeds SET last_fetched_at = $2, last_error = '', last_error_at = NULL, error_count = 0
		WHERE id = $1`
	_, err := r.db.q(ctx).Exec(ctx, sql, feedID, fetchedAt)
	if err != nil {
		return fmt.Errorf("record fetch success: %w", err)
	}
	return nil
}

func (r *FeedRepo) RecordFetchError(ctx context.Context, feedID string, errMsg string, at time.Time) error {
	const sql = `
		UPDATE content.feeds SET last_error = $2, last_error_at = $3, error_count = error_count + 1
		WHERE id = $1`
	_, err := r.db.q(ctx).Exec(ctx, sql, feedID, errMsg, at)
	if err != nil {
		return fmt.Errorf("record fetch error: %w", err)
	}
	return nil
}

const selectFeedSQL = `
	SELECT id, canonical_url, title, description, language, website, type,
	       last_fetched_at, last_update, last_error, last_error_at, error_count,
	       active, latest_articles, created_at
	FROM content.feeds`

func scanFeed(row pgx.Row) (*entity.Feed, error) {
	var f entity.Feed
	if err := row.Scan(&f.ID, &f.CanonicalURL, &f.Title, &f.Description, &f.Language, &f.Website, &f.Type,
		&f.LastFetchedAt, &f.LastUpdate, &f.LastError, &f.LastErrorAt, &f.ErrorCount,
		&f.Active, &f.LatestArticles, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFeedRows(rows pgx.Rows) (*entity.Feed, error) {
	var f entity.Feed
	if err := rows.Scan(&f.ID, &f.CanonicalURL, &f.Title, &f.Description, &f.Language, &f.Website, &f.Type,
		&f.LastFetchedAt, &f.LastUpdate, &f.LastError, &f.LastErrorAt, &f.ErrorCount,
		&f.Active, &f.LatestArticles, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return &f, nil
}
