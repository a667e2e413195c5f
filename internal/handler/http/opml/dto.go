// Package opml provides the HTTP handlers behind /opml/*: upload (+
// queue import), export, status polling, rollback, and download
// (§4.O, §6.1, §6.3).
package opml

import (
	"context"
	"time"

	"feedkeep/internal/domain/entity"
)

// JobEnqueuer schedules the import/export jobs the worker picks up,
// satisfied by internal/job.Publisher.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType entity.JobType, payload map[string]any) (string, error)
}

type statusDTO struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Total       int                 `json:"total"`
	Imported    int                 `json:"imported"`
	Failed      int                 `json:"failed"`
	Duplicate   int                 `json:"duplicate"`
	FailedFeeds []entity.OpmlFailure `json:"failed_feeds,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

func toDTO(o *entity.OpmlImport) statusDTO {
	return statusDTO{
		ID: o.ID, Status: string(o.Status), Total: o.Total, Imported: o.Imported,
		Failed: o.Failed, Duplicate: o.Duplicate, FailedFeeds: o.FailedFeeds,
		CreatedAt: o.CreatedAt, CompletedAt: o.CompletedAt,
	}
}
