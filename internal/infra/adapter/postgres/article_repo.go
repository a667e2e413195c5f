package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ArticleRepo implements repository.ArticleRepository. The row-locking
// upsert and the unique-violation/partition-missing retry loops are
// grounded on original_source's article_processor.py, expressed here
// the way the teacher's article_repo.go writes raw SQL against pgx.
type ArticleRepo struct{ db *DB }

func NewArticleRepo(db *DB) *ArticleRepo { return &ArticleRepo{db: db} }

// LockOrCreate finds an Article by canonical URL under SELECT ... FOR
// UPDATE; if absent, inserts it. A concurrent creator racing the
// insert surfaces as a unique-violation, which is treated as "found"
// by re-reading; a missing monthly partition is created once and the
// insert retried, per §4.A step 2.
func (r *ArticleRepo) LockOrCreate(ctx context.Context, a *entity.Article) (*entity.Article, bool, error) {
	existing, err := r.lockByURL(ctx, a.CanonicalURL)
	if err == nil {
		return existing, false, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("lock article by url: %w", err)
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	created, insertErr := r.insert(ctx, a)
	if insertErr == nil {
		return created, true, nil
	}

	if isUniqueViolation(insertErr) {
		existing, readErr := r.lockByURL(ctx, a.CanonicalURL)
		if readErr != nil {
			return nil, false, fmt.Errorf("re-read after unique violation: %w", readErr)
		}
		return existing, false, nil
	}

	if isUndefinedTable(insertErr) {
		if partErr := r.db.createMonthPartition(ctx, monthOf(a.PublishedAt)); partErr != nil {
			return nil, false, fmt.Errorf("create missing partition: %w", partErr)
		}
		created, retryErr := r.insert(ctx, a)
		if retryErr != nil {
			return nil, false, fmt.Errorf("insert after partition creation: %w", retryErr)
		}
		return created, true, nil
	}

	return nil, false, fmt.Errorf("insert article: %w", insertErr)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (r *ArticleRepo) lockByURL(ctx context.Context, canonicalURL string) (*entity.Article, error) {
	const sql = `
		SELECT id, canonical_url, title, author, summary, content, source_tags,
		       media_url, platform_metadata, published_at, created_at
		FROM content.articles
		WHERE canonical_url = $1
		FOR UPDATE`
	row := r.db.q(ctx).QueryRow(ctx, sql, canonicalURL)
	return scanArticle(row)
}

func (r *ArticleRepo) insert(ctx context.Context, a *entity.Article) (*entity.Article, error) {
	meta, err := json.Marshal(a.PlatformMetadata)
	if err != nil {
		return nil, fmt.Errorf("marshal platform metadata: %w", err)
	}
	const sql = `
		INSERT INTO content.articles
			(id, canonical_url, title, author, summary, content, source_tags,
			 media_url, platform_metadata, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.q(ctx).Exec(ctx, sql,
		a.ID, a.CanonicalURL, a.Title, a.Author, a.Summary, a.Content, a.SourceTags,
		a.MediaURL, meta, a.PublishedAt, a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ArticleRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	const sql = `
		SELECT id, canonical_url, title, author, summary, content, source_tags,
		       media_url, platform_metadata, published_at, created_at
		FROM content.articles WHERE id = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, id)
	a, err := scanArticle(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "article", ID: id}
	}
	return a, err
}

func scanArticle(row pgx.Row) (*entity.Article, error) {
	var a entity.Article
	var meta []byte
	if err := row.Scan(&a.ID, &a.CanonicalURL, &a.Title, &a.Author, &a.Summary, &a.Content,
		&a.SourceTags, &a.MediaURL, &meta, &a.PublishedAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.PlatformMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal platform metadata: %w", err)
		}
	}
	return &a, nil
}

// LinkSource creates the (article, feed) ArticleSource link if it does
// not already exist, per §3's uniqueness invariant.
func (r *ArticleRepo) LinkSource(ctx context.Context, articleID, feedID string) (bool, error) {
	const sql = `
		INSERT INTO content.article_sources (article_id, feed_id)
		VALUES ($1, $2)
		ON CONFLICT (article_id, feed_id) DO NOTHING`
	tag, err := r.db.q(ctx).Exec(ctx, sql, articleID, feedID)
	if err != nil {
		return false, fmt.Errorf("link article source: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ArticleRepo) HasSource(ctx context.Context, articleID, feedID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM content.article_sources WHERE article_id = $1 AND feed_id = $2)`
	var exists bool
	err := r.db.q(ctx).QueryRow(ctx, sql, articleID, feedID).Scan(&exists)
	return exists, err
}

func (r *ArticleRepo) EnsurePartitionsFor(ctx context.Context, publishedDates []time.Time) error {
	return r.db.EnsurePartitionsFor(ctx, publishedDates)
}
