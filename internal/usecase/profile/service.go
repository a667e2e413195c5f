// Package profile implements the account profile and preferences
// surface behind GET/PUT /me and /me/preferences.
package profile

import (
	"context"
	"errors"
	"fmt"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
)

// Service orchestrates User and UserPreferences reads/updates.
type Service struct {
	users repository.UserRepository
}

func New(users repository.UserRepository) *Service {
	return &Service{users: users}
}

// Get returns the caller's account row.
func (s *Service) Get(ctx context.Context, userID string) (*entity.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateUsername renames the caller's account after validating the
// new username against the same constraints enforced at registration.
func (s *Service) UpdateUsername(ctx context.Context, userID, username string) (*entity.User, error) {
	if err := entity.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := s.users.UpdateUsername(ctx, userID, username); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// Preferences returns the caller's stored preferences, or the
// documented defaults if none have been saved yet.
func (s *Service) Preferences(ctx context.Context, userID string) (*entity.UserPreferences, error) {
	prefs, err := s.users.GetPreferences(ctx, userID)
	if err != nil {
		var notFound *entity.NotFoundError
		if errors.As(err, &notFound) {
			defaults := entity.DefaultPreferences(userID)
			return &defaults, nil
		}
		return nil, err
	}
	return prefs, nil
}

// UpdatePreferences validates each (key, value) pair against its
// documented choice set before merging it into the caller's stored
// preferences and upserting the row (§6.1 PUT /me/preferences).
func (s *Service) UpdatePreferences(ctx context.Context, userID string, updates map[entity.PreferenceKey]string) (*entity.UserPreferences, error) {
	for key, value := range updates {
		if err := entity.ValidatePreferenceValue(key, value); err != nil {
			return nil, err
		}
	}

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyPreferenceUpdates(prefs, updates)

	if err := s.users.UpsertPreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return prefs, nil
}

func applyPreferenceUpdates(prefs *entity.UserPreferences, updates map[entity.PreferenceKey]string) {
	for key, value := range updates {
		switch key {
		case entity.PrefTheme:
			prefs.Theme = value
		case entity.PrefShowArticleThumbnails:
			prefs.ShowArticleThumbnails = value == "true"
		case entity.PrefAppLayout:
			prefs.AppLayout = value
		case entity.PrefArticleLayout:
			prefs.ArticleLayout = value
		case entity.PrefFontSpacing:
			prefs.FontSpacing = value
		case entity.PrefFontSize:
			prefs.FontSize = value
		case entity.PrefFeedSortOrder:
			prefs.FeedSortOrder = value
		case entity.PrefShowFeedFavicons:
			prefs.ShowFeedFavicons = value == "true"
		case entity.PrefDateFormat:
			prefs.DateFormat = value
		case entity.PrefTimeFormat:
			prefs.TimeFormat = value
		case entity.PrefLanguage:
			prefs.Language = value
		case entity.PrefAutoMarkAsRead:
			prefs.AutoMarkAsRead = value
		case entity.PrefEstimatedReadingTime:
			prefs.EstimatedReadingTime = value == "true"
		case entity.PrefShowSummaries:
			prefs.ShowSummaries = value == "true"
		}
	}
}
