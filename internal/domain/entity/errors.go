// Package entity holds the domain types shared across usecases and
// repositories: users, feeds, subscriptions, articles, and the error
// taxonomy surfaced at the HTTP boundary.
package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is by repository callers.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
)

// ValidationError reports a single field that failed a documented
// constraint. Translated to HTTP 400 at the boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// NotFoundError reports a resource missing or not owned by the caller.
// Translated to HTTP 404.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a business-level uniqueness violation, e.g. a
// tag rename colliding with an existing name. Translated to HTTP 409.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidCredentialsError reports a failed login attempt. Translated to
// HTTP 401. It never distinguishes "unknown user" from "wrong password".
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string { return "invalid username or password" }

// InvalidPasswordError reports a new password failing the server's
// password policy (length, etc). Translated to HTTP 400.
type InvalidPasswordError struct {
	Reason string
}

func (e *InvalidPasswordError) Error() string { return "invalid password: " + e.Reason }

// FolderLimitError reports that a folder create/move would exceed the
// configured depth or fan-out caps. Translated to HTTP 400.
type FolderLimitError struct {
	Depth       int
	FolderCount int
	MaxDepth    int
	MaxChildren int
}

func (e *FolderLimitError) Error() string {
	if e.Depth > e.MaxDepth {
		return fmt.Sprintf("folder depth %d exceeds maximum %d", e.Depth, e.MaxDepth)
	}
	return fmt.Sprintf("folder count %d exceeds maximum %d per parent", e.FolderCount, e.MaxChildren)
}

// CircularReferenceError reports a folder move that would introduce a
// cycle in the folder tree. Translated to HTTP 400.
type CircularReferenceError struct {
	FolderID string
	TargetID string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("moving folder %s under %s would create a cycle", e.FolderID, e.TargetID)
}

// UpstreamErrorKind classifies a feed fetch/parse failure.
type UpstreamErrorKind string

const (
	UpstreamNoFeedData   UpstreamErrorKind = "no_feed_data"
	UpstreamNoEntries    UpstreamErrorKind = "no_entries"
	UpstreamParsingError UpstreamErrorKind = "parsing_error"
)

// UpstreamError reports that a feed could not be fetched or parsed.
type UpstreamError struct {
	Kind UpstreamErrorKind
	URL  string
	Err  error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream error (%s) for %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("upstream error (%s) for %s", e.Kind, e.URL)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// FatalError reports a configuration or connectivity problem that
// should refuse startup rather than degrade.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string { return "fatal: " + e.Reason }
