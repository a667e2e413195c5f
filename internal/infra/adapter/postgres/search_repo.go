package postgres

import (
	"context"
	"fmt"
	"strings"

	"feedkeep/internal/domain/entity"
)

// SearchRepo implements repository.SearchRepository with per-type
// tsvector-prefix-or-trigram queries, grounded on original_source's
// infrastructure/repositories/search.py (search_feeds/search_tags/
// search_folders: a word-prefix to_tsquery OR'd with a pg_trgm `%`
// match, ranked by an exact-prefix indicator plus half the trigram
// similarity). Subscription titles are not denormalized onto
// personalization.subscriptions the way the original's UserFeed.title
// column is, so feed search resolves the effective display title
// (title_override, falling back to the feed's own title) once per row
// via a CTE before ranking against it.
type SearchRepo struct{ db *DB }

func NewSearchRepo(db *DB) *SearchRepo { return &SearchRepo{db: db} }

// prefixTSQuery turns "foo bar" into "foo:* | bar:*", the same
// OR'd-prefix shape original_source builds per search word.
func prefixTSQuery(query string) string {
	words := strings.Fields(query)
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w + ":*"
	}
	return strings.Join(parts, " | ")
}

func (r *SearchRepo) SearchFeeds(ctx context.Context, userID, query string, limit, offset int) ([]*entity.FeedSearchHit, int, error) {
	const sql = `
		WITH matches AS (
			SELECT s.id, COALESCE(NULLIF(s.title_override, ''), f.title) AS title,
			       f.website, f.last_update, s.active, s.pinned, s.unread_count, s.created_at
			FROM personalization.subscriptions s
			JOIN content.feeds f ON f.id = s.feed_id
			WHERE s.user_id = $1
		),
		ranked AS (
			SELECT *,
			       (CASE WHEN title ILIKE $2 || '%' THEN 1.0 ELSE 0.0 END
			        + similarity(title, $2) * 0.5) AS relevance
			FROM matches
			WHERE to_tsvector('simple', title) @@ to_tsquery('simple', $3) OR title % $2
		)
		SELECT id, title, website, active, pinned, unread_count, relevance, count(*) OVER() AS total
		FROM ranked
		ORDER BY relevance DESC, last_update DESC NULLS LAST, created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.q(ctx).Query(ctx, sql, userID, query, prefixTSQuery(query), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search feeds: %w", err)
	}
	defer rows.Close()

	var hits []*entity.FeedSearchHit
	total := 0
	for rows.Next() {
		var h entity.FeedSearchHit
		if err := rows.Scan(&h.SubscriptionID, &h.Title, &h.Website, &h.Active, &h.Pinned, &h.UnreadCount, &h.Relevance, &total); err != nil {
			return nil, 0, fmt.Errorf("scan feed search hit: %w", err)
		}
		hits = append(hits, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate feed search hits: %w", err)
	}
	return hits, total, nil
}

func (r *SearchRepo) SearchTags(ctx context.Context, userID, query string, limit, offset int) ([]*entity.TagSearchHit, int, error) {
	const sql = `
		WITH ranked AS (
			SELECT t.id, t.name, t.article_count,
			       (CASE WHEN t.name ILIKE $2 || '%' THEN 1.0 ELSE 0.0 END
			        + similarity(t.name, $2) * 0.5) AS relevance
			FROM personalization.user_tags t
			WHERE t.user_id = $1
			  AND (to_tsvector('simple', t.name) @@ to_tsquery('simple', $3) OR t.name % $2)
		)
		SELECT id, name, article_count, relevance, count(*) OVER() AS total
		FROM ranked
		ORDER BY relevance DESC, name ASC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.q(ctx).Query(ctx, sql, userID, query, prefixTSQuery(query), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search tags: %w", err)
	}
	defer rows.Close()

	var hits []*entity.TagSearchHit
	total := 0
	for rows.Next() {
		var h entity.TagSearchHit
		if err := rows.Scan(&h.ID, &h.Name, &h.ArticleCount, &h.Relevance, &total); err != nil {
			return nil, 0, fmt.Errorf("scan tag search hit: %w", err)
		}
		hits = append(hits, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tag search hits: %w", err)
	}
	return hits, total, nil
}

func (r *SearchRepo) SearchFolders(ctx context.Context, userID, query string, limit, offset int) ([]*entity.FolderSearchHit, int, error) {
	const sql = `
		WITH unread AS (
			SELECT s.folder_id, COALESCE(sum(s.unread_count), 0) AS unread_count
			FROM personalization.subscriptions s
			WHERE s.user_id = $1 AND s.folder_id IS NOT NULL
			GROUP BY s.folder_id
		),
		ranked AS (
			SELECT f.id, f.name, COALESCE(u.unread_count, 0) AS unread_count, f.pinned,
			       (CASE WHEN f.name ILIKE $2 || '%' THEN 1.0 ELSE 0.0 END
			        + similarity(f.name, $2) * 0.5) AS relevance
			FROM personalization.folders f
			LEFT JOIN unread u ON u.folder_id = f.id
			WHERE f.user_id = $1
			  AND (to_tsvector('simple', f.name) @@ to_tsquery('simple', $3) OR f.name % $2)
		)
		SELECT id, name, unread_count, pinned, relevance, count(*) OVER() AS total
		FROM ranked
		ORDER BY relevance DESC, name ASC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.q(ctx).Query(ctx, sql, userID, query, prefixTSQuery(query), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search folders: %w", err)
	}
	defer rows.Close()

	var hits []*entity.FolderSearchHit
	total := 0
	for rows.Next() {
		var h entity.FolderSearchHit
		if err := rows.Scan(&h.ID, &h.Name, &h.UnreadCount, &h.Pinned, &h.Relevance, &total); err != nil {
			return nil, 0, fmt.Errorf("scan folder search hit: %w", err)
		}
		hits = append(hits, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate folder search hits: %w", err)
	}
	return hits, total, nil
}

// SearchArticles searches the requesting user's UserArticle projection
// by the underlying Article's title. original_source's article
// repository (the actual query builder behind
// `_search_articles_with_score`) was not present in the filtered
// source pack, so this query is built fresh from the same
// prefix-tsquery-or-trigram shape the other three types use, scoped by
// a join through personalization.user_articles.
func (r *SearchRepo) SearchArticles(ctx context.Context, userID, query string, limit, offset int) ([]*entity.ArticleSearchHit, int, error) {
	const sql = `
		WITH matches AS (
			SELECT a.id, a.title, a.summary, a.media_url, a.published_at,
			       ua.is_read, ua.read_later
			FROM personalization.user_articles ua
			JOIN content.articles a ON a.id = ua.article_id
			WHERE ua.user_id = $1
		),
		ranked AS (
			SELECT *,
			       (CASE WHEN title ILIKE $2 || '%' THEN 1.0 ELSE 0.0 END
			        + similarity(title, $2) * 0.5) AS relevance
			FROM matches
			WHERE to_tsvector('simple', title) @@ to_tsquery('simple', $3) OR title % $2
		)
		SELECT id, title, summary, media_url, published_at, is_read, read_later, relevance, count(*) OVER() AS total
		FROM ranked
		ORDER BY relevance DESC, published_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.q(ctx).Query(ctx, sql, userID, query, prefixTSQuery(query), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search articles: %w", err)
	}
	defer rows.Close()

	var hits []*entity.ArticleSearchHit
	total := 0
	for rows.Next() {
		var h entity.ArticleSearchHit
		if err := rows.Scan(&h.ID, &h.Title, &h.Summary, &h.MediaURL, &h.PublishedAt, &h.IsRead, &h.ReadLater, &h.Relevance, &total); err != nil {
			return nil, 0, fmt.Errorf("scan article search hit: %w", err)
		}
		hits = append(hits, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate article search hits: %w", err)
	}
	return hits, total, nil
}
