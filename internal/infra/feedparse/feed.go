// Package feedparse implements the Parser (P) component: extraction of
// FeedMeta/EntryRecord from a parsed gofeed.Feed, grounded on
// original_source's feed_metadata.py/entry_content.py/media.py, ported
// to gofeed's object model (the richer feedparser attribute-probing
// style collapses to direct struct-field reads since gofeed already
// normalizes RSS/Atom/RDF into one shape).
package feedparse

import (
	"html"
	"strings"

	"feedkeep/internal/domain/entity"

	"github.com/mmcdole/gofeed"
)

// FeedMeta is the extracted, normalized feed-level metadata.
type FeedMeta struct {
	Title       string
	Description string
	Language    string
	Website     string
	Type        entity.FeedType
}

// ExtractFeedMeta mirrors FeedExtractor.extract_feed_metadata: title
// always present (possibly empty), description only kept under 500
// chars, language normalized to a 2-letter (or 2-2 region) code,
// website preferring the feed's own link.
func ExtractFeedMeta(f *gofeed.Feed) FeedMeta {
	return FeedMeta{
		Title:       strings.TrimSpace(html.UnescapeString(f.Title)),
		Description: extractDescription(f.Description),
		Language:    normalizeLanguageCode(f.Language),
		Website:     extractWebsite(f),
		Type:        detectFeedType(f),
	}
}

func extractDescription(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) >= 500 {
		return ""
	}
	return trimmed
}

func normalizeLanguageCode(language string) string {
	trimmed := strings.TrimSpace(language)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) == 1 {
		return lowerTrunc(parts[0], 2)
	}
	return lowerTrunc(parts[0], 2) + "-" + upperTrunc(parts[1], 2)
}

func lowerTrunc(s string, n int) string {
	s = strings.ToLower(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}

func upperTrunc(s string, n int) string {
	s = strings.ToUpper(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}

func extractWebsite(f *gofeed.Feed) string {
	if f.Link != "" {
		return f.Link
	}
	for _, l := range f.Links {
		if l != "" {
			return l
		}
	}
	return ""
}

// detectFeedType maps gofeed's FeedType ("rss", "atom", "json") plus
// FeedVersion (which carries "RDF" for RSS 1.0) onto entity.FeedType,
// defaulting to RSS like the original implementation.
func detectFeedType(f *gofeed.Feed) entity.FeedType {
	version := strings.ToLower(f.FeedVersion)
	switch {
	case strings.Contains(version, "rdf"):
		return entity.FeedTypeRDF
	case strings.Contains(strings.ToLower(f.FeedType), "atom"):
		return entity.FeedTypeAtom
	default:
		return entity.FeedTypeRSS
	}
}

// ValidateFeedStructure mirrors validate_feed_structure: a feed with no
// parsed metadata, or zero entries, surfaces as the corresponding
// entity.UpstreamErrorKind.
func ValidateFeedStructure(f *gofeed.Feed) *entity.UpstreamErrorKind {
	if f == nil {
		kind := entity.UpstreamNoFeedData
		return &kind
	}
	if len(f.Items) == 0 {
		kind := entity.UpstreamNoEntries
		return &kind
	}
	return nil
}

// MaxEntriesPerFeed truncates entry processing per §5's CPU-budget
// note: feeds with more than this many entries are truncated at
// ingestion.
const MaxEntriesPerFeed = 50
