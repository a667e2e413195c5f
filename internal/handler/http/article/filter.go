package article

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"feedkeep/internal/common/pagination"
	"feedkeep/internal/repository"
)

const defaultListLimit = 30

// parseFilter builds a repository.ArticleFilter from GET /articles and
// POST /articles/mark-as-read query parameters (§6.1): cursor,
// subscription_ids, tag_ids, folder_ids, is_read, read_later, q,
// from_date, to_date, limit.
func parseFilter(r *http.Request) repository.ArticleFilter {
	q := r.URL.Query()

	filter := repository.ArticleFilter{
		SubscriptionIDs: splitCSV(q.Get("subscription_ids")),
		TagIDs:          splitCSV(q.Get("tag_ids")),
		FolderIDs:       splitCSV(q.Get("folder_ids")),
		Query:           q.Get("q"),
		Limit:           defaultListLimit,
		Cursor:          pagination.Decode(q.Get("cursor")),
	}

	if v := q.Get("is_read"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsRead = &b
		}
	}
	if v := q.Get("read_later"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.ReadLater = &b
		}
	}
	if v := q.Get("from_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.FromDate = &t
		}
	}
	if v := q.Get("to_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.ToDate = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	return filter
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
