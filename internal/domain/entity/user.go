package entity

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Username length bounds; enforced by validation, configurable via
// MIN_USERNAME_LENGTH/MAX_USERNAME_LENGTH (see internal/pkg/config).
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

// User is an account holder. Username uniqueness is case-insensitive;
// NormalizedUsername is what repositories index and compare on.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizedUsername returns the lowercased form used for uniqueness
// checks and lookups.
func (u *User) NormalizedUsername() string {
	return strings.ToLower(strings.TrimSpace(u.Username))
}

// ValidateUsername checks the username against the documented length
// and character constraints. Usernames may contain letters, digits,
// underscore, dash and dot.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return &ValidationError{Field: "username", Message: "must not be empty"}
	}
	length := utf8.RuneCountInString(trimmed)
	if length < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "too short"}
	}
	if length > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "too long"}
	}
	for _, r := range trimmed {
		if !isUsernameRune(r) {
			return &ValidationError{Field: "username", Message: "contains an invalid character"}
		}
	}
	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.':
		return true
	}
	return false
}

// PreferenceKey enumerates the §6.4 user preference keys. Unknown keys
// are rejected rather than silently ignored.
type PreferenceKey string

const (
	PrefTheme                 PreferenceKey = "theme"
	PrefShowArticleThumbnails PreferenceKey = "show_article_thumbnails"
	PrefAppLayout             PreferenceKey = "app_layout"
	PrefArticleLayout         PreferenceKey = "article_layout"
	PrefFontSpacing           PreferenceKey = "font_spacing"
	PrefFontSize              PreferenceKey = "font_size"
	PrefFeedSortOrder         PreferenceKey = "feed_sort_order"
	PrefShowFeedFavicons      PreferenceKey = "show_feed_favicons"
	PrefDateFormat            PreferenceKey = "date_format"
	PrefTimeFormat            PreferenceKey = "time_format"
	PrefLanguage              PreferenceKey = "language"
	PrefAutoMarkAsRead        PreferenceKey = "auto_mark_as_read"
	PrefEstimatedReadingTime  PreferenceKey = "estimated_reading_time"
	PrefShowSummaries         PreferenceKey = "show_summaries"
)

// UserPreferences is the 1:1 per-user preference row. Values are
// stored as strings/bools; defaults are applied on first read rather
// than persisted, so a brand-new user never needs a seed row.
type UserPreferences struct {
	UserID                string
	Theme                 string
	ShowArticleThumbnails bool
	AppLayout             string
	ArticleLayout         string
	FontSpacing           string
	FontSize              string
	FeedSortOrder         string
	ShowFeedFavicons      bool
	DateFormat            string
	TimeFormat            string
	Language              string
	AutoMarkAsRead        string
	EstimatedReadingTime  bool
	ShowSummaries         bool
}

// DefaultPreferences returns the documented defaults for a user with
// no stored preference row.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{
		UserID:                userID,
		Theme:                 "system",
		ShowArticleThumbnails: true,
		AppLayout:             "split",
		ArticleLayout:         "grid",
		FontSpacing:           "normal",
		FontSize:              "m",
		FeedSortOrder:         "recent_first",
		ShowFeedFavicons:      true,
		DateFormat:            "relative",
		TimeFormat:            "12h",
		Language:              "en",
		AutoMarkAsRead:        "disabled",
		EstimatedReadingTime:  true,
		ShowSummaries:         true,
	}
}

var (
	themeChoices         = map[string]bool{"light": true, "dark": true, "system": true}
	appLayoutChoices     = map[string]bool{"split": true, "focus": true}
	articleLayoutChoices = map[string]bool{"grid": true, "list": true, "magazine": true}
	fontSpacingChoices   = map[string]bool{"compact": true, "normal": true, "comfortable": true}
	fontSizeChoices      = map[string]bool{"xs": true, "s": true, "m": true, "l": true, "xl": true}
	feedSortChoices      = map[string]bool{"alphabetical": true, "recent_first": true}
	dateFormatChoices    = map[string]bool{"relative": true, "absolute": true}
	timeFormatChoices    = map[string]bool{"12h": true, "24h": true}
	autoMarkChoices      = map[string]bool{"disabled": true, "7_days": true, "14_days": true, "30_days": true}

	// iso639_1 is a representative subset of ISO 639-1 codes, not an
	// exhaustive registry; the "language" preference (see DESIGN.md
	// Open Question #2) is validated against this fixed set rather
	// than left uncontrolled like the original implementation.
	iso639_1 = map[string]bool{
		"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
		"ru": true, "ja": true, "zh": true, "ko": true, "ar": true, "hi": true,
		"nl": true, "sv": true, "pl": true, "tr": true, "vi": true, "th": true,
		"id": true, "uk": true,
	}
)

// ValidatePreferenceValue checks a single preference key/value pair
// against its documented choice set. String values are coerced to the
// declared type before the choice check.
func ValidatePreferenceValue(key PreferenceKey, value string) error {
	switch key {
	case PrefTheme:
		return validateChoice(key, value, themeChoices)
	case PrefAppLayout:
		return validateChoice(key, value, appLayoutChoices)
	case PrefArticleLayout:
		return validateChoice(key, value, articleLayoutChoices)
	case PrefFontSpacing:
		return validateChoice(key, value, fontSpacingChoices)
	case PrefFontSize:
		return validateChoice(key, value, fontSizeChoices)
	case PrefFeedSortOrder:
		return validateChoice(key, value, feedSortChoices)
	case PrefDateFormat:
		return validateChoice(key, value, dateFormatChoices)
	case PrefTimeFormat:
		return validateChoice(key, value, timeFormatChoices)
	case PrefAutoMarkAsRead:
		return validateChoice(key, value, autoMarkChoices)
	case PrefLanguage:
		return validateChoice(key, value, iso639_1)
	case PrefShowArticleThumbnails, PrefShowFeedFavicons, PrefEstimatedReadingTime, PrefShowSummaries:
		if value != "true" && value != "false" {
			return &ValidationError{Field: string(key), Message: "must be a boolean"}
		}
		return nil
	default:
		return &ValidationError{Field: string(key), Message: "unknown preference key"}
	}
}

func validateChoice(key PreferenceKey, value string, choices map[string]bool) error {
	if !choices[value] {
		return &ValidationError{Field: string(key), Message: "not one of the allowed choices"}
	}
	return nil
}
