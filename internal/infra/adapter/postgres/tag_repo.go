package postgres

import (
	"context"
	"fmt"

	"feedkeep/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TagRepo implements repository.TagRepository. GetOrCreate follows the
// teacher's integrity-violation-then-reread idiom (§7 propagation
// policy): insert, and on a unique-violation race re-read instead of
// surfacing the error.
type TagRepo struct{ db *DB }

func NewTagRepo(db *DB) *TagRepo { return &TagRepo{db: db} }

func (r *TagRepo) GetOrCreate(ctx context.Context, userID, name string) (*entity.UserTag, error) {
	if tag, err := r.getByName(ctx, userID, name); err == nil {
		return tag, nil
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	id := uuid.NewString()
	const insertSQL = `
		INSERT INTO personalization.user_tags (id, user_id, name, article_count)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, name) DO NOTHING`
	if _, err := r.db.q(ctx).Exec(ctx, insertSQL, id, userID, name); err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	tag, err := r.getByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("re-read tag after create: %w", err)
	}
	return tag, nil
}

func (r *TagRepo) getByName(ctx context.Context, userID, name string) (*entity.UserTag, error) {
	const sql = `SELECT id, user_id, name, article_count FROM personalization.user_tags WHERE user_id = $1 AND name = $2`
	var t entity.UserTag
	err := r.db.q(ctx).QueryRow(ctx, sql, userID, name).Scan(&t.ID, &t.UserID, &t.Name, &t.ArticleCount)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) GetByID(ctx context.Context, userID, tagID string) (*entity.UserTag, error) {
	const sql = `SELECT id, user_id, name, article_count FROM personalization.user_tags WHERE user_id = $1 AND id = $2`
	var t entity.UserTag
	err := r.db.q(ctx).QueryRow(ctx, sql, userID, tagID).Scan(&t.ID, &t.UserID, &t.Name, &t.ArticleCount)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "tag", ID: tagID}
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}

// Rename renames a tag under the same (user, name) uniqueness rule;
// a collision surfaces as entity.ConflictError per §4.T.
func (r *TagRepo) Rename(ctx context.Context, userID, tagID, newName string) error {
	const sql = `UPDATE personalization.user_tags SET name = $3 WHERE user_id = $1 AND id = $2`
	_, err := r.db.q(ctx).Exec(ctx, sql, userID, tagID, newName)
	if isUniqueViolation(err) {
		return &entity.ConflictError{Resource: "tag", Reason: "name already in use"}
	}
	if err != nil {
		return fmt.Errorf("rename tag: %w", err)
	}
	return nil
}

func (r *TagRepo) Delete(ctx context.Context, userID, tagID string) error {
	const sql = `DELETE FROM personalization.user_tags WHERE user_id = $1 AND id = $2`
	tag, err := r.db.q(ctx).Exec(ctx, sql, userID, tagID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "tag", ID: tagID}
	}
	return nil
}

func (r *TagRepo) ListForUser(ctx context.Context, userID string) ([]*entity.UserTag, error) {
	const sql = `SELECT id, user_id, name, article_count FROM personalization.user_tags WHERE user_id = $1 ORDER BY name`
	rows, err := r.db.q(ctx).Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []*entity.UserTag
	for rows.Next() {
		var t entity.UserTag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

func (r *TagRepo) LinkArticleTag(ctx context.Context, userID, articleID, tagID string) error {
	const sql = `
		INSERT INTO personalization.article_tags (user_id, article_id, tag_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, article_id, tag_id) DO NOTHING`
	if _, err := r.db.q(ctx).Exec(ctx, sql, userID, articleID, tagID); err != nil {
		return fmt.Errorf("link article tag: %w", err)
	}
	return nil
}

func (r *TagRepo) UnlinkArticleTag(ctx context.Context, userID, articleID, tagID string) error {
	const sql = `DELETE FROM personalization.article_tags WHERE user_id = $1 AND article_id = $2 AND tag_id = $3`
	if _, err := r.db.q(ctx).Exec(ctx, sql, userID, articleID, tagID); err != nil {
		return fmt.Errorf("unlink article tag: %w", err)
	}
	return nil
}

func (r *TagRepo) TagsForArticle(ctx context.Context, userID, articleID string) ([]*entity.UserTag, error) {
	const sql = `
		SELECT t.id, t.user_id, t.name, t.article_count
		FROM personalization.user_tags t
		JOIN personalization.article_tags at ON at.tag_id = t.id
		WHERE at.user_id = $1 AND at.article_id = $2`
	rows, err := r.db.q(ctx).Query(ctx, sql, userID, articleID)
	if err != nil {
		return nil, fmt.Errorf("tags for article: %w", err)
	}
	defer rows.Close()

	var tags []*entity.UserTag
	for rows.Next() {
		var t entity.UserTag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}
