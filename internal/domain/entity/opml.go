package entity

import "time"

// OpmlImportStatus tracks the lifecycle of one OPML import or export
// batch.
type OpmlImportStatus string

const (
	OpmlStatusPending    OpmlImportStatus = "pending"
	OpmlStatusProcessing OpmlImportStatus = "processing"
	OpmlStatusCompleted  OpmlImportStatus = "completed"
	OpmlStatusFailed     OpmlImportStatus = "failed"
)

// OpmlFailure records one feed within an import batch that could not
// be subscribed.
type OpmlFailure struct {
	URL    string
	Reason string
}

// OpmlImport tracks one import or export batch per §3/§4.O.
type OpmlImport struct {
	ID          string
	UserID      string
	Filename    string
	StorageKey  string
	Status      OpmlImportStatus
	Total       int
	Imported    int
	Failed      int
	Duplicate   int
	FailedFeeds []OpmlFailure
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// OPML structural limits, per §6.6.
const (
	MaxOPMLNestingDepth = 9
	MaxOPMLOutlines     = 10_000
	MaxOPMLFileSize     = 16 * 1024 * 1024
	OpmlFileExpiryHours = 24
)
