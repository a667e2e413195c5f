package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"

	"github.com/jackc/pgx/v5"
)

// UserArticleRepo implements repository.UserArticleRepository. FanOutForFeed
// is the bulk, one-statement UserArticle upsert called out in §4.S as
// a raw-SQL entry point that must stay a single statement.
type UserArticleRepo struct{ db *DB }

func NewUserArticleRepo(db *DB) *UserArticleRepo { return &UserArticleRepo{db: db} }

// FanOutForFeed inserts a UserArticle row (is_read=false, read_later=false)
// for every active subscriber of feedID, for every article id in
// articleIDs, ON CONFLICT DO NOTHING so it is idempotent for
// already-fanned-out (user, article) pairs.
func (r *UserArticleRepo) FanOutForFeed(ctx context.Context, feedID string, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	const sql = `
		INSERT INTO personalization.user_articles (user_id, article_id, is_read, read_later)
		SELECT s.user_id, a.article_id, false, false
		FROM personalization.subscriptions s
		CROSS JOIN unnest($2::uuid[]) AS a(article_id)
		WHERE s.feed_id = $1 AND s.active = true
		ON CONFLICT (user_id, article_id) DO NOTHING`
	if _, err := r.db.q(ctx).Exec(ctx, sql, feedID, articleIDs); err != nil {
		return fmt.Errorf("fan out user articles: %w", err)
	}
	return nil
}

func (r *UserArticleRepo) Get(ctx context.Context, userID, articleID string) (*entity.UserArticle, error) {
	const sql = `
		SELECT user_id, article_id, is_read, read_later, read_at
		FROM personalization.user_articles WHERE user_id = $1 AND article_id = $2`
	var ua entity.UserArticle
	err := r.db.q(ctx).QueryRow(ctx, sql, userID, articleID).
		Scan(&ua.UserID, &ua.ArticleID, &ua.IsRead, &ua.ReadLater, &ua.ReadAt)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "user_article"}
	}
	if err != nil {
		return nil, fmt.Errorf("get user article: %w", err)
	}
	return &ua, nil
}

func (r *UserArticleRepo) Upsert(ctx context.Context, ua *entity.UserArticle) error {
	const sql = `
		INSERT INTO personalization.user_articles (user_id, article_id, is_read, read_later, read_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, article_id)
		DO UPDATE SET is_read = EXCLUDED.is_read, read_later = EXCLUDED.read_later, read_at = EXCLUDED.read_at`
	_, err := r.db.q(ctx).Exec(ctx, sql, ua.UserID, ua.ArticleID, ua.IsRead, ua.ReadLater, ua.ReadAt)
	if err != nil {
		return fmt.Errorf("upsert user article: %w", err)
	}
	return nil
}

func (r *UserArticleRepo) DeleteForUserArticles(ctx context.Context, userID string, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	const sql = `DELETE FROM personalization.user_articles WHERE user_id = $1 AND article_id = ANY($2)`
	if _, err := r.db.q(ctx).Exec(ctx, sql, userID, articleIDs); err != nil {
		return fmt.Errorf("delete user articles: %w", err)
	}
	return nil
}

// ListUnreachable returns the subset of articles linked to feedID that
// the user cannot reach through any other feed they subscribe to,
// i.e. the candidates for deletion on unsubscribe (§4.U).
func (r *UserArticleRepo) ListUnreachable(ctx context.Context, userID string, feedID string, excludeFeedID string) ([]string, error) {
	const sql = `
		SELECT asrc.article_id
		FROM content.article_sources asrc
		WHERE asrc.feed_id = $2
		  AND NOT EXISTS (
		    SELECT 1
		    FROM content.article_sources other
		    JOIN personalization.subscriptions sub
		      ON sub.feed_id = other.feed_id AND sub.user_id = $1 AND sub.active = true
		    WHERE other.article_id = asrc.article_id AND other.feed_id <> $3
		  )`
	rows, err := r.db.q(ctx).Query(ctx, sql, userID, feedID, excludeFeedID)
	if err != nil {
		return nil, fmt.Errorf("list unreachable articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unreachable article id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AutoMarkReadSweep applies each user's auto_mark_as_read preference
// cutoff (7/14/30 days) to their unread UserArticle rows, in one
// statement, per the §4.F cron job.
func (r *UserArticleRepo) AutoMarkReadSweep(ctx context.Context) (int64, error) {
	const sql = `
		UPDATE personalization.user_articles ua
		SET is_read = true, read_at = now()
		FROM personalization.user_preferences p
		JOIN content.articles a ON a.id = ua.article_id
		WHERE p.user_id = ua.user_id
		  AND ua.is_read = false
		  AND (
		    (p.auto_mark_as_read = '7_days'  AND a.published_at < now() - interval '7 days') OR
		    (p.auto_mark_as_read = '14_days' AND a.published_at < now() - interval '14 days') OR
		    (p.auto_mark_as_read = '30_days' AND a.published_at < now() - interval '30 days')
		  )`
	tag, err := r.db.q(ctx).Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("auto-mark-read sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}

// defaultArticleListLimit is applied when filter.Limit is unset or
// non-positive.
const defaultArticleListLimit = 30

// ListForUser implements the cursor-paginated articles feed (§6.1
// GET /articles). The DISTINCT ON collapses an article reachable
// through more than one of the user's subscriptions down to a single
// row, picking the oldest matching subscription as its attribution.
func (r *UserArticleRepo) ListForUser(ctx context.Context, userID string, filter repository.ArticleFilter) ([]*entity.ArticleListItem, map[string]any, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultArticleListLimit
	}

	var where []string
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.SubscriptionIDs) > 0 {
		where = append(where, fmt.Sprintf("sub.id = ANY(%s)", arg(filter.SubscriptionIDs)))
	}
	if len(filter.FolderIDs) > 0 {
		where = append(where, fmt.Sprintf("sub.folder_id = ANY(%s)", arg(filter.FolderIDs)))
	}
	if filter.IsRead != nil {
		where = append(where, fmt.Sprintf("ua.is_read = %s", arg(*filter.IsRead)))
	}
	if filter.ReadLater != nil {
		where = append(where, fmt.Sprintf("ua.read_later = %s", arg(*filter.ReadLater)))
	}
	if filter.Query != "" {
		where = append(where, fmt.Sprintf("a.title ILIKE %s", arg("%"+filter.Query+"%")))
	}
	if filter.FromDate != nil {
		where = append(where, fmt.Sprintf("a.published_at >= %s", arg(*filter.FromDate)))
	}
	if filter.ToDate != nil {
		where = append(where, fmt.Sprintf("a.published_at <= %s", arg(*filter.ToDate)))
	}
	if len(filter.TagIDs) > 0 {
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM personalization.article_tags atg
			WHERE atg.user_id = ua.user_id AND atg.article_id = a.id AND atg.tag_id = ANY(%s)
		)`, arg(filter.TagIDs)))
	}
	if cursorPublished, ok := filter.Cursor["published_at"].(string); ok && cursorPublished != "" {
		cursorID, _ := filter.Cursor["id"].(string)
		publishedAt, err := time.Parse(time.RFC3339Nano, cursorPublished)
		if err == nil {
			where = append(where, fmt.Sprintf("(a.published_at, a.id) < (%s, %s)", arg(publishedAt), arg(cursorID)))
		}
	}

	limitPlaceholder := arg(limit + 1)

	whereClause := ""
	if len(where) > 0 {
		whereClause = "AND " + strings.Join(where, " AND ")
	}

	sql := fmt.Sprintf(`
		SELECT id, title, author, summary, media_url, source_tags, published_at,
		       subscription_id, feed_id, is_read, read_later, read_at
		FROM (
			SELECT DISTINCT ON (a.id)
			       a.id, a.title, a.author, a.summary, a.media_url, a.source_tags, a.published_at,
			       sub.id AS subscription_id, sub.feed_id, ua.is_read, ua.read_later, ua.read_at
			FROM personalization.user_articles ua
			JOIN content.articles a ON a.id = ua.article_id
			JOIN content.article_sources asrc ON asrc.article_id = a.id
			JOIN personalization.subscriptions sub
			  ON sub.feed_id = asrc.feed_id AND sub.user_id = ua.user_id AND sub.active = true
			WHERE ua.user_id = $1
			%s
			ORDER BY a.id, sub.created_at
		) joined
		ORDER BY published_at DESC, id DESC
		LIMIT %s`, whereClause, limitPlaceholder)

	rows, err := r.db.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list articles for user: %w", err)
	}
	defer rows.Close()

	var items []*entity.ArticleListItem
	for rows.Next() {
		var it entity.ArticleListItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Summary, &it.MediaURL, &it.SourceTags,
			&it.PublishedAt, &it.SubscriptionID, &it.FeedID, &it.IsRead, &it.ReadLater, &it.ReadAt); err != nil {
			return nil, nil, fmt.Errorf("scan article list item: %w", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next map[string]any
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = map[string]any{
			"published_at": last.PublishedAt.Format(time.RFC3339Nano),
			"id":           last.ID,
		}
	}
	return items, next, nil
}
