// Package folder implements per-user Folder tree operations: create,
// rename, move, delete, and the full tree listing, enforcing the
// MAX_FOLDER_DEPTH/MAX_FOLDERS_PER_PARENT/MAX_FOLDER_NAME_LENGTH caps
// and circular-reference check a direct repository.FolderRepository
// caller would otherwise have to reimplement per handler.
package folder

import (
	"context"
	"fmt"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"

	"github.com/google/uuid"
)

// Service orchestrates Folder tree mutations.
type Service struct {
	folders repository.FolderRepository
}

func New(folders repository.FolderRepository) *Service {
	return &Service{folders: folders}
}

// Tree returns every folder owned by userID.
func (s *Service) Tree(ctx context.Context, userID string) ([]*entity.Folder, error) {
	return s.folders.Tree(ctx, userID)
}

// Create validates name length and the depth/fan-out caps, then
// inserts a new Folder under parentID (nil for a root folder).
func (s *Service) Create(ctx context.Context, userID, name string, parentID *string) (*entity.Folder, error) {
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(name) > entity.MaxFolderNameLength {
		return nil, &entity.ValidationError{Field: "name", Message: "too long"}
	}

	depth := 0
	if parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.UserID != userID {
			return nil, &entity.NotFoundError{Resource: "folder", ID: *parentID}
		}
		depth = parent.Depth + 1
	}
	if depth > entity.MaxFolderDepth {
		return nil, &entity.FolderLimitError{Depth: depth, MaxDepth: entity.MaxFolderDepth}
	}

	count, err := s.folders.ChildCount(ctx, parentID, userID)
	if err != nil {
		return nil, fmt.Errorf("count sibling folders: %w", err)
	}
	if count >= entity.MaxFoldersPerParent {
		return nil, &entity.FolderLimitError{FolderCount: count + 1, MaxChildren: entity.MaxFoldersPerParent}
	}

	f := &entity.Folder{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
		Depth:    depth,
	}
	if err := s.folders.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return f, nil
}

// Rename changes a folder's name in place, leaving its position in
// the tree untouched.
func (s *Service) Rename(ctx context.Context, userID, folderID, name string) (*entity.Folder, error) {
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(name) > entity.MaxFolderNameLength {
		return nil, &entity.ValidationError{Field: "name", Message: "too long"}
	}
	f, err := s.owned(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	f.Name = name
	if err := s.folders.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("rename folder: %w", err)
	}
	return f, nil
}

// Move relocates folderID under newParentID (nil promotes it to the
// root), rejecting a move that would create a cycle or exceed the
// depth/fan-out caps at the destination.
func (s *Service) Move(ctx context.Context, userID, folderID string, newParentID *string) (*entity.Folder, error) {
	f, err := s.owned(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}

	depth := 0
	if newParentID != nil {
		if *newParentID == folderID {
			return nil, &entity.CircularReferenceError{FolderID: folderID, TargetID: *newParentID}
		}
		isDescendant, err := s.folders.IsDescendant(ctx, folderID, *newParentID)
		if err != nil {
			return nil, fmt.Errorf("check folder ancestry: %w", err)
		}
		if isDescendant {
			return nil, &entity.CircularReferenceError{FolderID: folderID, TargetID: *newParentID}
		}
		parent, err := s.owned(ctx, userID, *newParentID)
		if err != nil {
			return nil, err
		}
		depth = parent.Depth + 1
	}
	if depth > entity.MaxFolderDepth {
		return nil, &entity.FolderLimitError{Depth: depth, MaxDepth: entity.MaxFolderDepth}
	}

	count, err := s.folders.ChildCount(ctx, newParentID, userID)
	if err != nil {
		return nil, fmt.Errorf("count sibling folders: %w", err)
	}
	if count >= entity.MaxFoldersPerParent {
		return nil, &entity.FolderLimitError{FolderCount: count + 1, MaxChildren: entity.MaxFoldersPerParent}
	}

	f.ParentID = newParentID
	f.Depth = depth
	if err := s.folders.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("move folder: %w", err)
	}
	return f, nil
}

// Pin toggles a folder's pinned flag.
func (s *Service) Pin(ctx context.Context, userID, folderID string, pinned bool) (*entity.Folder, error) {
	f, err := s.owned(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	f.Pinned = pinned
	if err := s.folders.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("pin folder: %w", err)
	}
	return f, nil
}

// Delete removes a folder. Subscriptions pointing at it are left with
// a dangling FolderID at the storage layer's discretion; the HTTP
// handler is responsible for reassigning them first if that matters
// to the caller.
func (s *Service) Delete(ctx context.Context, userID, folderID string) error {
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return err
	}
	return s.folders.Delete(ctx, folderID)
}

func (s *Service) owned(ctx context.Context, userID, folderID string) (*entity.Folder, error) {
	f, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, &entity.NotFoundError{Resource: "folder", ID: folderID}
	}
	return f, nil
}
