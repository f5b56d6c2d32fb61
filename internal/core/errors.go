package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL means a Spotify URL had no usable path segment.
	ErrMalformedURL = errors.New("malformed spotify url")

	// ErrCatalogAuth means the catalog rejected our credentials (401/403).
	ErrCatalogAuth = errors.New("catalog authentication failed")

	// ErrCatalogUnavailable covers any other non-2xx catalog response.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrIncompleteMetadata means a record is missing title or artist and
	// cannot be searched for. Treated as "track not found", not a crash.
	ErrIncompleteMetadata = errors.New("incomplete track metadata")

	// ErrNotFound means the locator produced zero search results.
	ErrNotFound = errors.New("no matching source found")
)

// AcquisitionError is returned when download retries are exhausted.
// It carries the last underlying cause.
type AcquisitionError struct {
	Attempts int
	Err      error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// TagWriteError is returned when an acquired file cannot be tagged. It is
// the one per-track failure surfaced to the pipeline caller, since an
// untagged file is a worse outcome than no file.
type TagWriteError struct {
	Path string
	Err  error
}

func (e *TagWriteError) Error() string {
	return fmt.Sprintf("tagging %s: %v", e.Path, e.Err)
}

func (e *TagWriteError) Unwrap() error { return e.Err }
