package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/infra/adapter/redis"
	"feedkeep/internal/observability/metrics"
	"feedkeep/internal/usecase/feed"
	"feedkeep/internal/usecase/opml"
	"feedkeep/internal/usecase/subscription"

	goredis "github.com/redis/go-redis/v9"
)

// Worker pulls job ids off the queue and dispatches them to the
// matching handler, one at a time per goroutine — callers run
// Concurrency Worker.Run calls to get the bounded concurrent job count
// §4.J's scheduling model describes (default 10).
type Worker struct {
	queue    *redis.Client
	tracker  *Tracker
	feeds    *feed.Service
	subs     *subscription.Service
	opmls    *opml.Service
	timeout  time.Duration
	pollWait time.Duration
}

func NewWorker(queue *redis.Client, tracker *Tracker, feeds *feed.Service, subs *subscription.Service, opmls *opml.Service) *Worker {
	return &Worker{
		queue: queue, tracker: tracker, feeds: feeds, subs: subs, opmls: opmls,
		timeout:  DefaultTTL,
		pollWait: 500 * time.Millisecond,
	}
}

// Run blocks, dispatching jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		id, err := w.queue.BlockingPop(ctx, queueKey, w.pollWait)
		if err != nil {
			if errors.Is(err, goredis.Nil) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			slog.Warn("job dequeue failed", "error", err)
			continue
		}
		w.dispatch(ctx, string(id))
	}
}

func (w *Worker) dispatch(parent context.Context, jobID string) {
	rec, err := w.tracker.Get(parent, jobID)
	if err != nil {
		slog.Error("job record missing at dispatch", "job_id", jobID, "error", err)
		return
	}

	start := time.Now()
	metrics.RecordJobRun(string(rec.Type), "started")
	rec.Status = entity.JobStatusRunning
	_ = w.tracker.Update(parent, rec)

	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	result, runErr := w.run(ctx, rec)
	metrics.RecordJobDuration(string(rec.Type), time.Since(start))

	now := time.Now().UTC()
	rec.CompletedAt = &now
	if runErr != nil {
		metrics.RecordJobRun(string(rec.Type), "failure")
		rec.Status = entity.JobStatusError
		rec.Error = runErr.Error()
		slog.Warn("job failed", "job_id", jobID, "type", rec.Type, "error", runErr)
	} else {
		metrics.RecordJobRun(string(rec.Type), "success")
		rec.Status = entity.JobStatusCompleted
		rec.Result = result
		slog.Info("job completed", "job_id", jobID, "type", rec.Type)
	}

	if err := w.tracker.Update(parent, rec); err != nil {
		slog.Error("failed to record job completion", "job_id", jobID, "error", err)
	}
	if err := w.tracker.NotifyDone(parent, rec); err != nil {
		slog.Warn("failed to publish job completion notice", "job_id", jobID, "error", err)
	}
}

// run dispatches one JobRecord to its handler by type (§4.J Worker
// functions); each handler commits its own storage work under the
// services' own transactions.
func (w *Worker) run(ctx context.Context, rec *entity.JobRecord) (map[string]any, error) {
	switch rec.Type {
	case entity.JobTypeCreateAndSubscribe:
		return w.runCreateAndSubscribe(ctx, rec.Payload)
	case entity.JobTypeOpmlImport:
		return w.runOpmlImport(ctx, rec.Payload)
	case entity.JobTypeOpmlExport:
		return w.runOpmlExport(ctx, rec.Payload)
	default:
		return nil, fmt.Errorf("unknown job type %q", rec.Type)
	}
}

func (w *Worker) runCreateAndSubscribe(ctx context.Context, payload map[string]any) (map[string]any, error) {
	url, _ := payload["url"].(string)
	userID, _ := payload["user_id"].(string)
	var folderID *string
	if v, ok := payload["folder_id"].(string); ok && v != "" {
		folderID = &v
	}

	f, err := w.feeds.CreateFeed(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}
	sub, err := w.subs.Subscribe(ctx, userID, f.ID, folderID, nil)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if err := w.subs.BackfillFromLatest(ctx, userID, f, nil); err != nil {
		slog.Warn("backfill latest articles failed", "feed_id", f.ID, "error", err)
	}
	return map[string]any{"feed_id": f.ID, "subscription_id": sub.ID}, nil
}

func (w *Worker) runOpmlImport(ctx context.Context, payload map[string]any) (map[string]any, error) {
	importID, _ := payload["import_id"].(string)
	var folderID *string
	if v, ok := payload["folder_id"].(string); ok && v != "" {
		folderID = &v
	}
	if err := w.opmls.Import(ctx, importID, folderID); err != nil {
		return nil, err
	}
	return map[string]any{"import_id": importID}, nil
}

func (w *Worker) runOpmlExport(ctx context.Context, payload map[string]any) (map[string]any, error) {
	exportID, _ := payload["export_id"].(string)
	userID, _ := payload["user_id"].(string)
	if err := w.opmls.ExportForUser(ctx, exportID, userID); err != nil {
		return nil, err
	}
	return map[string]any{"export_id": exportID}, nil
}
