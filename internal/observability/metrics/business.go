package metrics

import (
	"time"
)

// RecordArticlesFetched records the number of articles fetched from a feed
// in one refresh.
func RecordArticlesFetched(feedID string, count int) {
	if count <= 0 {
		return
	}
	ArticlesFetchedTotal.WithLabelValues(feedID).Add(float64(count))
}

// RecordFeedRefresh records metrics for one feed refresh attempt.
func RecordFeedRefresh(feedID string, duration time.Duration, itemsFetched int) {
	FeedRefreshDuration.WithLabelValues(feedID).Observe(duration.Seconds())
	RecordArticlesFetched(feedID, itemsFetched)
}

// RecordFeedRefreshError records an error during feed refresh.
func RecordFeedRefreshError(feedID string, errorType string) {
	FeedRefreshErrors.WithLabelValues(feedID, errorType).Inc()
}

// RecordFeedsProcessed updates the feeds-total gauge with the number of
// feeds seen in one refresh cycle.
func RecordFeedsProcessed(count int) {
	FeedsTotal.Set(float64(count))
}

// RecordJobRun increments the job-run counter for the given cron job
// name and outcome status ("started", "success", "failure").
func RecordJobRun(job, status string) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes the duration of one cron job execution.
func RecordJobDuration(job string, duration time.Duration) {
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// UpdateArticlesTotal updates the total count of articles in the database.
// This gauge should be updated periodically to reflect the current state.
func UpdateArticlesTotal(count int) {
	ArticlesTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_articles", "insert_article").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
