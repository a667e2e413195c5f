package job

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/infra/adapter/redis"

	"github.com/google/uuid"
)

// queueKey is the single Redis list every job type enqueues onto; the
// worker dispatches by the JobRecord's Type field, mirroring the
// teacher's single-queue cron-job shape rather than one list per type.
const queueKey = "jobs:queue"

// Publisher constructs JobRecords and enqueues their ids for the
// worker to pick up (§4.J Publisher).
type Publisher struct {
	queue   *redis.Client
	tracker *Tracker
}

func NewPublisher(queue *redis.Client, tracker *Tracker) *Publisher {
	return &Publisher{queue: queue, tracker: tracker}
}

// Enqueue creates a pending JobRecord with the given type and payload,
// then pushes its id onto the queue. Returns the new job id.
func (p *Publisher) Enqueue(ctx context.Context, jobType entity.JobType, payload map[string]any) (string, error) {
	rec := &entity.JobRecord{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    entity.JobStatusPending,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.tracker.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("record job: %w", err)
	}
	if err := p.queue.Push(ctx, queueKey, []byte(rec.ID)); err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}
