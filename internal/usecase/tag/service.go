// Package tag implements the Tag engine (T) component: name
// sanitization, get-or-create/rename/delete, and article-tag set
// sync, grounded on original_source's tag_service.py sanitize_tag_name
// and the teacher's per-user-scoped resource idiom.
package tag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
)

// MaxTagNameLength bounds a sanitized tag name.
const MaxTagNameLength = 64

var controlCharRe = regexp.MustCompile(`[\x00-\x1f\x7f]`)
var whitespaceRunRe = regexp.MustCompile(`\s+`)

// SanitizeName strips control characters, collapses internal
// whitespace, and trims the result, matching sanitize_tag_name (§4.T
// Create).
func SanitizeName(raw string) string {
	s := controlCharRe.ReplaceAllString(raw, "")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Service orchestrates per-user Tag operations.
type Service struct {
	tags repository.TagRepository
}

func New(tags repository.TagRepository) *Service {
	return &Service{tags: tags}
}

// Create sanitizes name and get-or-creates it under the (user, name)
// uniqueness rule.
func (s *Service) Create(ctx context.Context, userID, rawName string) (*entity.UserTag, error) {
	name := SanitizeName(rawName)
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "tag name is empty after sanitization"}
	}
	if len(name) > MaxTagNameLength {
		return nil, &entity.ValidationError{Field: "name", Message: "tag name too long"}
	}
	return s.tags.GetOrCreate(ctx, userID, name)
}

// Update renames a tag under the same uniqueness rule; a collision
// surfaces as entity.ConflictError (409) from the repository.
func (s *Service) Update(ctx context.Context, userID, tagID, rawName string) error {
	name := SanitizeName(rawName)
	if name == "" {
		return &entity.ValidationError{Field: "name", Message: "tag name is empty after sanitization"}
	}
	if len(name) > MaxTagNameLength {
		return &entity.ValidationError{Field: "name", Message: "tag name too long"}
	}
	return s.tags.Rename(ctx, userID, tagID, name)
}

// Delete removes a tag; its ArticleTag links cascade at the storage
// layer (FK ON DELETE CASCADE).
func (s *Service) Delete(ctx context.Context, userID, tagID string) error {
	return s.tags.Delete(ctx, userID, tagID)
}

// Get returns one tag owned by userID.
func (s *Service) Get(ctx context.Context, userID, tagID string) (*entity.UserTag, error) {
	return s.tags.GetByID(ctx, userID, tagID)
}

// List returns every tag owned by userID.
func (s *Service) List(ctx context.Context, userID string) ([]*entity.UserTag, error) {
	return s.tags.ListForUser(ctx, userID)
}

// TagsForArticle returns the tags currently linked to articleID for
// userID.
func (s *Service) TagsForArticle(ctx context.Context, userID, articleID string) ([]*entity.UserTag, error) {
	return s.tags.TagsForArticle(ctx, userID, articleID)
}

// SyncArticleTags applies the desired tag set to an article for one
// user: added = desired − current, removed = current − desired. Every
// tag id in desired must be owned by userID, verified via GetByID
// before any link is applied (§4.T Sync article tags).
func (s *Service) SyncArticleTags(ctx context.Context, userID, articleID string, desired []string) error {
	current, err := s.tags.TagsForArticle(ctx, userID, articleID)
	if err != nil {
		return fmt.Errorf("list current article tags: %w", err)
	}
	currentIDs := make(map[string]bool, len(current))
	for _, t := range current {
		currentIDs[t.ID] = true
	}
	desiredIDs := make(map[string]bool, len(desired))
	for _, id := range desired {
		desiredIDs[id] = true
	}

	for id := range desiredIDs {
		if currentIDs[id] {
			continue
		}
		if _, err := s.tags.GetByID(ctx, userID, id); err != nil {
			return fmt.Errorf("verify tag ownership %s: %w", id, err)
		}
		if err := s.tags.LinkArticleTag(ctx, userID, articleID, id); err != nil {
			return fmt.Errorf("link tag %s: %w", id, err)
		}
	}
	for id := range currentIDs {
		if desiredIDs[id] {
			continue
		}
		if err := s.tags.UnlinkArticleTag(ctx, userID, articleID, id); err != nil {
			return fmt.Errorf("unlink tag %s: %w", id, err)
		}
	}
	return nil
}
