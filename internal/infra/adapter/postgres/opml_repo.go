package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"feedkeep/internal/domain/entity"

	"github.com/jackc/pgx/v5"
)

// OpmlRepo implements repository.OpmlRepository.
type OpmlRepo struct{ db *DB }

func NewOpmlRepo(db *DB) *OpmlRepo { return &OpmlRepo{db: db} }

func (r *OpmlRepo) Create(ctx context.Context, o *entity.OpmlImport) error {
	failed, err := json.Marshal(o.FailedFeeds)
	if err != nil {
		return fmt.Errorf("marshal failed feeds: %w", err)
	}
	const sql = `
		INSERT INTO personalization.opml_imports
			(id, user_id, filename, storage_key, status, total, imported, failed, duplicate,
			 failed_feeds, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.db.q(ctx).Exec(ctx, sql,
		o.ID, o.UserID, o.Filename, o.StorageKey, o.Status, o.Total, o.Imported, o.Failed, o.Duplicate,
		failed, o.CreatedAt, o.CompletedAt)
	if err != nil {
		return fmt.Errorf("create opml import: %w", err)
	}
	return nil
}

func (r *OpmlRepo) GetByID(ctx context.Context, id string) (*entity.OpmlImport, error) {
	const sql = `
		SELECT id, user_id, filename, storage_key, status, total, imported, failed, duplicate,
		       failed_feeds, created_at, completed_at
		FROM personalization.opml_imports WHERE id = $1`
	row := r.db.q(ctx).QueryRow(ctx, sql, id)
	o, err := scanOpmlImport(row)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "opml_import", ID: id}
	}
	return o, err
}

func (r *OpmlRepo) Update(ctx context.Context, o *entity.OpmlImport) error {
	failed, err := json.Marshal(o.FailedFeeds)
	if err != nil {
		return fmt.Errorf("marshal failed feeds: %w", err)
	}
	const sql = `
		UPDATE personalization.opml_imports SET
			status = $2, total = $3, imported = $4, failed = $5, duplicate = $6,
			failed_feeds = $7, completed_at = $8
		WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, o.ID, o.Status, o.Total, o.Imported, o.Failed, o.Duplicate, failed, o.CompletedAt)
	if err != nil {
		return fmt.Errorf("update opml import: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "opml_import", ID: o.ID}
	}
	return nil
}

func scanOpmlImport(row pgx.Row) (*entity.OpmlImport, error) {
	var o entity.OpmlImport
	var failed []byte
	if err := row.Scan(&o.ID, &o.UserID, &o.Filename, &o.StorageKey, &o.Status, &o.Total, &o.Imported,
		&o.Failed, &o.Duplicate, &failed, &o.CreatedAt, &o.CompletedAt); err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		if err := json.Unmarshal(failed, &o.FailedFeeds); err != nil {
			return nil, fmt.Errorf("unmarshal failed feeds: %w", err)
		}
	}
	return &o, nil
}
