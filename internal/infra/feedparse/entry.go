package feedparse

import (
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// EntryRecord is the extracted, normalized representation of one feed
// entry, ready for sanitization (N) and article upsert (A).
type EntryRecord struct {
	Title            string
	Link             string
	Content          string
	ContentSource    string // "media:description" | "atom:content" | "content:encoded" | ""
	Author           string
	Categories       []string
	PublishedAt      *time.Time
	MediaURL         string
	PlatformMetadata map[string]any
}

// ExtractEntry ports entry_content.py + media.py's per-entry
// extraction onto a gofeed.Item.
func ExtractEntry(item *gofeed.Item) EntryRecord {
	content, source := extractContent(item)
	return EntryRecord{
		Title:            strings.TrimSpace(html.UnescapeString(item.Title)),
		Link:             item.Link,
		Content:          content,
		ContentSource:    source,
		Author:           extractAuthor(item),
		Categories:       extractCategories(item),
		PublishedAt:      extractPublishDate(item),
		MediaURL:         extractMediaURL(item),
		PlatformMetadata: extractPlatformMetadata(item),
	}
}

// extractContent follows the original's dedicated-content-tag
// priority: Atom <content> before RSS <description>, since gofeed
// already folds <content:encoded> into Item.Content.
func extractContent(item *gofeed.Item) (string, string) {
	if item.Content != "" && strings.TrimSpace(item.Content) != "" {
		return item.Content, "atom:content"
	}
	if item.Description != "" && strings.TrimSpace(item.Description) != "" {
		return item.Description, "content:encoded"
	}
	return "", ""
}

// extractAuthor prefers a structured Authors[0].Name, falling back to
// the deprecated single Author field and DublinCoreExt.Creator.
func extractAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 {
		if name := strings.TrimSpace(item.Authors[0].Name); name != "" {
			return name
		}
		if email := strings.TrimSpace(item.Authors[0].Email); email != "" && !strings.Contains(email, "@example") {
			return email
		}
	}
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		creators := make([]string, 0, len(item.DublinCoreExt.Creator))
		for _, c := range item.DublinCoreExt.Creator {
			if c != "" {
				creators = append(creators, c)
			}
		}
		if len(creators) > 0 {
			return strings.Join(creators, ", ")
		}
	}
	return ""
}

// extractCategories merges tags/categories, splitting any comma-joined
// string into individual names and suppressing duplicates, per
// §4.A's "Ordering & tie-breaks" note.
func extractCategories(item *gofeed.Item) []string {
	seen := map[string]bool{}
	var out []string
	add := func(raw string) {
		for _, part := range strings.Split(raw, ",") {
			name := strings.TrimSpace(part)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, c := range item.Categories {
		add(c)
	}
	if item.DublinCoreExt != nil {
		for _, s := range item.DublinCoreExt.Subject {
			add(s)
		}
	}
	return out
}

// extractPublishDate tries PublishedParsed, then UpdatedParsed, then a
// best-effort parse of the raw Published/Updated strings, matching the
// original's published→updated→created fallback chain.
func extractPublishDate(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		return &t
	}
	if t := parseFallbackDate(item.Published); t != nil {
		return t
	}
	if t := parseFallbackDate(item.Updated); t != nil {
		return t
	}
	return nil
}

var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05-07:00",
	time.RFC1123Z,
	time.RFC1123,
}

func parseFallbackDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// extractMediaURL follows the original's priority order: Media RSS
// thumbnail/content, then enclosure images, then the feed's own Image,
// then (left to the sanitizer/caller) a first-image-in-HTML fallback.
func extractMediaURL(item *gofeed.Item) string {
	if url := mediaExtensionThumbnail(item); url != "" {
		return url
	}
	for _, enc := range item.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	return ""
}

// mediaExtensionThumbnail reads the Yahoo Media RSS namespace
// ("media:thumbnail"/"media:content") out of gofeed's generic
// Extensions map, since gofeed has no typed Media RSS support.
func mediaExtensionThumbnail(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	if thumbs, ok := media["thumbnail"]; ok {
		for _, t := range thumbs {
			if url, ok := t.Attrs["url"]; ok && url != "" {
				return url
			}
		}
	}
	if contents, ok := media["content"]; ok {
		for _, c := range contents {
			medium := strings.ToLower(c.Attrs["medium"])
			mediaType := strings.ToLower(c.Attrs["type"])
			if strings.Contains(medium, "image") || strings.HasPrefix(mediaType, "image/") {
				if url, ok := c.Attrs["url"]; ok && url != "" {
					return url
				}
			}
		}
	}
	return ""
}

// extractPlatformMetadata ports the podcast/YouTube branches of
// MediaExtractor.extract_metadata_from_entry.
func extractPlatformMetadata(item *gofeed.Item) map[string]any {
	meta := map[string]any{}

	for _, enc := range item.Enclosures {
		if strings.Contains(strings.ToLower(enc.Type), "audio") {
			podcast := map[string]any{
				"audio_url": enc.URL,
				"type":      enc.Type,
			}
			if enc.Length != "" {
				podcast["length"] = enc.Length
			}
			meta["podcast"] = podcast
			break
		}
	}

	if yt, ok := item.Extensions["yt"]; ok {
		youtube := map[string]any{}
		if ids, ok := yt["videoId"]; ok && len(ids) > 0 {
			youtube["video_id"] = ids[0].Value
		}
		if chans, ok := yt["channelId"]; ok && len(chans) > 0 {
			youtube["channel_id"] = chans[0].Value
		}
		if len(youtube) > 0 {
			meta["youtube"] = youtube
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		if community, ok := media["community"]; ok && len(community) > 0 {
			mergeMediaCommunity(meta, community[0])
		}
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}

func mergeMediaCommunity(meta map[string]any, community gofeed.Extension) {
	youtube, _ := meta["youtube"].(map[string]any)
	if youtube == nil {
		youtube = map[string]any{}
	}
	if stats, ok := community.Children["statistics"]; ok && len(stats) > 0 {
		if views, ok := stats[0].Attrs["views"]; ok {
			if n, err := strconv.Atoi(views); err == nil {
				youtube["views"] = n
			}
		}
	}
	if rating, ok := community.Children["starRating"]; ok && len(rating) > 0 {
		if avg, ok := rating[0].Attrs["average"]; ok {
			if f, err := strconv.ParseFloat(avg, 64); err == nil {
				youtube["rating"] = f
			}
		}
		if count, ok := rating[0].Attrs["count"]; ok {
			if n, err := strconv.Atoi(count); err == nil {
				youtube["rating_count"] = n
			}
		}
	}
	if len(youtube) > 0 {
		meta["youtube"] = youtube
	}
}
