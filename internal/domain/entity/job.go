package entity

import "time"

// JobStatus is the lifecycle state of a JobRecord.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// JobType enumerates the work items the job runtime (J) dispatches.
type JobType string

const (
	JobTypeCreateAndSubscribe JobType = "feed_create_and_subscribe"
	JobTypeOpmlImport         JobType = "opml_import"
	JobTypeOpmlExport         JobType = "opml_export"
)

// JobRecord lives in the cache/queue (Q), keyed "job:{id}", TTL'd at
// JOB_TTL and refreshed on every status update.
type JobRecord struct {
	ID          string
	Type        JobType
	Status      JobStatus
	Payload     map[string]any
	Result      map[string]any
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
