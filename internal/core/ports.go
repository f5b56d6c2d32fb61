package core

import (
	"context"
)

// Catalog resolves Spotify URLs and fetches normalized track metadata.
type Catalog interface {
	// ResolveLink parses a Spotify URL into its kind and identifier.
	// Returns ErrMalformedURL when no identifier is present.
	ResolveLink(rawURL string) (Link, error)

	// Track fetches one normalized track record.
	Track(ctx context.Context, id string) (TrackRecord, error)

	// Collection fetches a playlist's or album's title and full ordered
	// track list, following pagination until exhausted.
	Collection(ctx context.Context, link Link) (Collection, error)

	// CollectionAccessible reports whether a metadata probe on the
	// collection succeeds. Private or deleted collections report false.
	CollectionAccessible(ctx context.Context, link Link) bool
}

// Locator maps a track's search key to a playable source. Returns
// ErrNotFound when the search yields nothing; the first result wins.
type Locator interface {
	Locate(ctx context.Context, title, artists string) (SourceHandle, error)
}

// Acquirer downloads and transcodes a source into a local audio file.
// The returned path has the target codec's extension regardless of the
// requested destination's extension.
type Acquirer interface {
	Acquire(ctx context.Context, handle SourceHandle, dst string) (string, error)
}

// Tagger embeds ID3 metadata into an acquired file. coverPath may be empty.
type Tagger interface {
	Tag(path string, rec TrackRecord, coverPath string) error
}

// CoverFetcher downloads cover art to a local path, normalizing it to JPEG.
type CoverFetcher interface {
	Fetch(ctx context.Context, url, dst string) (string, error)
}

// Archiver zips the acquired audio files of one staging directory. Entries
// are placed under folderName inside the archive; stray non-audio files are
// ignored. Returns the number of files archived.
type Archiver interface {
	Archive(dir, zipPath, folderName string) (int, error)
}

// UpdateDedup filters already-seen transport update IDs.
type UpdateDedup interface {
	Seen(id string) bool
	Mark(id string)
}

// DeliveryCache remembers the transport file ID of previously delivered
// tracks so repeat requests skip the pipeline entirely.
type DeliveryCache interface {
	Get(trackID string) (fileID string, ok bool)
	Put(trackID, fileID string) error
	// Delete drops a mapping the transport has rejected as stale.
	Delete(trackID string) error
}

// Metrics is the subset of the HTTP server's instrumentation the
// dispatcher and pipeline report into.
type Metrics interface {
	RequestHandled(kind, status string)
	TrackAcquired(outcome string)
	AcquireRetried()
	ObserveProcessing(kind string, seconds float64)
}
