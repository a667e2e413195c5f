// Package job implements the Job runtime (J) component: the
// JobRecord publisher/tracker over the cache/queue gateway (Q), the
// worker dispatch table, and the cron schedule, adapted from the
// teacher's cmd/worker cron wiring (startCronWorker/runCrawlJob) and
// the Redis cache/pub-sub helpers found in the pack's
// brandon-relentnet-myscrollr repo.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/infra/adapter/redis"
)

// DefaultTTL is JOB_TTL's default, per §4.J.
const DefaultTTL = 3600 * time.Second

func recordKey(jobID string) string {
	return "job:" + jobID
}

func notifyChannel(jobID string) string {
	return "job:" + jobID + ":done"
}

// Tracker manipulates JobRecord rows in Q under key "job:{id}", TTL
// reset on every update (§4.J Status tracker).
type Tracker struct {
	cache *redis.Client
	ttl   time.Duration
}

func NewTracker(cache *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{cache: cache, ttl: ttl}
}

func (t *Tracker) Create(ctx context.Context, rec *entity.JobRecord) error {
	return t.save(ctx, rec)
}

func (t *Tracker) Update(ctx context.Context, rec *entity.JobRecord) error {
	return t.save(ctx, rec)
}

func (t *Tracker) save(ctx context.Context, rec *entity.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}
	if err := t.cache.Set(ctx, recordKey(rec.ID), data, t.ttl); err != nil {
		return fmt.Errorf("store job record: %w", err)
	}
	return nil
}

func (t *Tracker) Get(ctx context.Context, jobID string) (*entity.JobRecord, error) {
	data, err := t.cache.Get(ctx, recordKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("load job record: %w", err)
	}
	var rec entity.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal job record: %w", err)
	}
	return &rec, nil
}

// NotifyDone publishes the completed/failed JobRecord for anyone
// subscribed to this job's completion (§4.J Worker functions).
func (t *Tracker) NotifyDone(ctx context.Context, rec *entity.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}
	return t.cache.Publish(ctx, notifyChannel(rec.ID), data)
}
