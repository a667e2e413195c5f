package postgres

import (
	"context"
	"fmt"

	"feedkeep/internal/domain/entity"

	"github.com/jackc/pgx/v5"
)

// SubscriptionRepo implements repository.SubscriptionRepository.
type SubscriptionRepo struct{ db *DB }

func NewSubscriptionRepo(db *DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const selectSubscriptionSQL = `
	SELECT id, user_id, feed_id, title_override, folder_id, pinned, active, unread_count, import_id, created_at
	FROM personalization.subscriptions`

func (r *SubscriptionRepo) Create(ctx context.Context, s *entity.Subscription) error {
	const sql = `
		INSERT INTO personalization.subscriptions
			(id, user_id, feed_id, title_override, folder_id, pinned, active, unread_count, import_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.q(ctx).Exec(ctx, sql,
		s.ID, s.UserID, s.FeedID, s.TitleOverride, s.FolderID, s.Pinned, s.Active, s.UnreadCount, s.ImportID, s.CreatedAt)
	if isUniqueViolation(err) {
		return &entity.ConflictError{Resource: "subscription", Reason: "already subscribed to this feed"}
	}
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) GetByUserAndFeed(ctx context.Context, userID, feedID string) (*entity.Subscription, error) {
	const sql = selectSubscriptionSQL + ` WHERE user_id = $1 AND feed_id = $2`
	row := r.db.q(ctx).QueryRow(ctx, sql, userID, feedID)
	s, err := scanSubscription(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "subscription"}
	}
	return s, err
}

func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	const sql = selectSubscriptionSQL + ` WHERE id = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, id)
	s, err := scanSubscription(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "subscription", ID: id}
	}
	return s, err
}

func (r *SubscriptionRepo) Update(ctx context.Context, s *entity.Subscription) error {
	const sql = `
		UPDATE personalization.subscriptions SET
			title_override = $2, folder_id = $3, pinned = $4, active = $5, unread_count = $6
		WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, s.ID, s.TitleOverride, s.FolderID, s.Pinned, s.Active, s.UnreadCount)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "subscription", ID: s.ID}
	}
	return nil
}

func (r *SubscriptionRepo) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM personalization.subscriptions WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "subscription", ID: id}
	}
	return nil
}

func (r *SubscriptionRepo) ListForUser(ctx context.Context, userID string, folderID *string) ([]*entity.Subscription, error) {
	sql := selectSubscriptionSQL + ` WHERE user_id = $1`
	args := []any{userID}
	if folderID != nil {
		sql += ` AND folder_id = $2`
		args = append(args, *folderID)
	}
	sql += ` ORDER BY pinned DESC, created_at DESC`

	rows, err := r.db.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for user: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Subscription
	for rows.Next() {
		s, err := scanSubscriptionRows(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepo) ListActiveSubscribersOfFeed(ctx context.Context, feedID string) ([]string, error) {
	const sql = `SELECT user_id FROM personalization.subscriptions WHERE feed_id = $1 AND active = true`
	rows, err := r.db.q(ctx).Query(ctx, sql, feedID)
	if err != nil {
		return nil, fmt.Errorf("list active subscribers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SubscriptionRepo) ListByImportID(ctx context.Context, userID, importID string) ([]*entity.Subscription, error) {
	const sql = selectSubscriptionSQL + ` WHERE user_id = $1 AND import_id = $2`
	rows, err := r.db.q(ctx).Query(ctx, sql, userID, importID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions by import: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Subscription
	for rows.Next() {
		s, err := scanSubscriptionRows(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeleteByImportID removes every subscription created by a given OPML
// import batch, the core of the §4.O rollback path.
func (r *SubscriptionRepo) DeleteByImportID(ctx context.Context, userID, importID string) (int64, error) {
	const sql = `DELETE FROM personalization.subscriptions WHERE user_id = $1 AND import_id = $2`
	tag, err := r.db.q(ctx).Exec(ctx, sql, userID, importID)
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions by import: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecalculateUnreadCount recomputes the denormalized unread_count
// column from personalization.user_articles, used after bulk
// read-state changes.
func (r *SubscriptionRepo) RecalculateUnreadCount(ctx context.Context, subscriptionID string) error {
	const sql = `
		UPDATE personalization.subscriptions sub SET unread_count = (
			SELECT count(*)
			FROM content.article_sources asrc
			JOIN personalization.user_articles ua
			  ON ua.article_id = asrc.article_id AND ua.user_id = sub.user_id
			WHERE asrc.feed_id = sub.feed_id AND ua.is_read = false
		)
		WHERE sub.id = $1`
	_, err := r.db.q(ctx).Exec(ctx, sql, subscriptionID)
	if err != nil {
		return fmt.Errorf("recalculate unread count: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var s entity.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.FeedID, &s.TitleOverride, &s.FolderID,
		&s.Pinned, &s.Active, &s.UnreadCount, &s.ImportID, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSubscriptionRows(rows pgx.Rows) (*entity.Subscription, error) {
	var s entity.Subscription
	if err := rows.Scan(&s.ID, &s.UserID, &s.FeedID, &s.TitleOverride, &s.FolderID,
		&s.Pinned, &s.Active, &s.UnreadCount, &s.ImportID, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return &s, nil
}
