package postgres

import (
	"context"
	"fmt"

	"feedkeep/internal/domain/entity"

	"github.com/jackc/pgx/v5"
)

// FolderRepo implements repository.FolderRepository.
type FolderRepo struct{ db *DB }

func NewFolderRepo(db *DB) *FolderRepo { return &FolderRepo{db: db} }

func (r *FolderRepo) Create(ctx context.Context, f *entity.Folder) error {
	const sql = `
		INSERT INTO personalization.folders (id, user_id, name, parent_id, depth, pinned)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.q(ctx).Exec(ctx, sql, f.ID, f.UserID, f.Name, f.ParentID, f.Depth, f.Pinned)
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (r *FolderRepo) GetByID(ctx context.Context, id string) (*entity.Folder, error) {
	const sql = `SELECT id, user_id, name, parent_id, depth, pinned FROM personalization.folders WHERE id = $1`
	var f entity.Folder
	err := r.db.q(ctx).QueryRow(ctx, sql, id).Scan(&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.Depth, &f.Pinned)
	if err == pgx.ErrNoRows {
		return nil, &entity.NotFoundError{Resource: "folder", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &f, nil
}

func (r *FolderRepo) Update(ctx context.Context, f *entity.Folder) error {
	const sql = `
		UPDATE personalization.folders SET name = $2, parent_id = $3, depth = $4, pinned = $5
		WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, f.ID, f.Name, f.ParentID, f.Depth, f.Pinned)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "folder", ID: f.ID}
	}
	return nil
}

func (r *FolderRepo) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM personalization.folders WHERE id = $1`
	tag, err := r.db.q(ctx).Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &entity.NotFoundError{Resource: "folder", ID: id}
	}
	return nil
}

// ChildCount counts direct children of parentID (or root-level folders
// when parentID is nil), enforcing MAX_FOLDERS_PER_PARENT.
func (r *FolderRepo) ChildCount(ctx context.Context, parentID *string, userID string) (int, error) {
	var sql string
	var row pgx.Row
	if parentID == nil {
		sql = `SELECT count(*) FROM personalization.folders WHERE user_id = $1 AND parent_id IS NULL`
		row = r.db.q(ctx).QueryRow(ctx, sql, userID)
	} else {
		sql = `SELECT count(*) FROM personalization.folders WHERE user_id = $1 AND parent_id = $2`
		row = r.db.q(ctx).QueryRow(ctx, sql, userID, *parentID)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

// Tree returns every folder owned by userID, ordered breadth-first by
// depth then name, the shape the folder-tree endpoint (§6.1) renders.
func (r *FolderRepo) Tree(ctx context.Context, userID string) ([]*entity.Folder, error) {
	const sql = `
		SELECT id, user_id, name, parent_id, depth, pinned
		FROM personalization.folders
		WHERE user_id = $1
		ORDER BY depth, name`
	rows, err := r.db.q(ctx).Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("folder tree: %w", err)
	}
	defer rows.Close()

	var folders []*entity.Folder
	for rows.Next() {
		var f entity.Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.Depth, &f.Pinned); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

// IsDescendant reports whether candidateID lies anywhere below
// ancestorID in the folder tree, via a recursive CTE. Used to reject a
// move that would create a cycle (§4.Folder invariant).
func (r *FolderRepo) IsDescendant(ctx context.Context, ancestorID, candidateID string) (bool, error) {
	const sql = `
		WITH RECURSIVE descendants AS (
			SELECT id FROM personalization.folders WHERE parent_id = $1
			UNION ALL
			SELECT f.id FROM personalization.folders f
			JOIN descendants d ON f.parent_id = d.id
		)
		SELECT EXISTS (SELECT 1 FROM descendants WHERE id = $2)`
	var exists bool
	if err := r.db.q(ctx).QueryRow(ctx, sql, ancestorID, candidateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check descendant: %w", err)
	}
	return exists, nil
}
