// Package apperr defines the error taxonomy shared by the ingest pipeline,
// the discovery aggregator and the API layer. Handlers map these onto HTTP
// status codes; everything else wraps them with context via fmt.Errorf.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidIdentifier indicates malformed user input (bad URL, bad id).
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrExtractionFailed indicates the primary source page could not be
	// parsed into even a title. Aborts the whole ingest.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrServiceNotConfigured indicates a third-party integration has no
	// credentials configured.
	ErrServiceNotConfigured = errors.New("service not configured")

	// ErrUpstream indicates a transport or parse failure from an external call.
	ErrUpstream = errors.New("upstream error")

	// ErrNotFound indicates the requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedOperation indicates the operation doesn't apply to the
	// entity's kind (e.g. episode re-sync on a movie).
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrNoEpisodeData indicates the episode guide yielded nothing usable.
	// Callers decide whether this is fatal: initial ingest swallows it,
	// re-sync aborts on it.
	ErrNoEpisodeData = errors.New("no episode data available")
)

// ConflictError reports that a media item with the same external id already
// exists. It carries the existing internal id so the caller can open that
// item instead of failing.
type ConflictError struct {
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("media item already exists: %s", e.ExistingID)
}

// IsConflict reports whether err is a ConflictError, returning the existing id.
func IsConflict(err error) (uuid.UUID, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.ExistingID, true
	}
	return uuid.Nil, false
}
