package core

// LinkKind classifies a Spotify URL by what it points at.
type LinkKind string

const (
	LinkTrack    LinkKind = "track"
	LinkAlbum    LinkKind = "album"
	LinkPlaylist LinkKind = "playlist"
)

// Link is a resolved Spotify URL: what it points at and its identifier.
type Link struct {
	Kind LinkKind
	ID   string
}

// TrackRecord is the normalized track metadata the pipeline operates on.
// String fields fall back to "Unknown" and numeric fields to 0 when the
// catalog omits them; only an empty Title or Artists blocks acquisition.
type TrackRecord struct {
	ID          string
	Title       string
	Artists     string // display-joined, e.g. "A, B"
	Album       string
	ReleaseDate string
	Genres      string // comma-joined, possibly "Unknown"
	CoverURL    string // possibly empty
	TrackNumber int
	TotalTracks int
}

// Collection is a playlist or album with its resolved title and ordered tracks.
type Collection struct {
	Link   Link
	Title  string
	Tracks []TrackRecord
}

// SourceHandle references a playable source on the video-hosting side.
type SourceHandle struct {
	ID    string
	URL   string
	Title string
}

// AcquiredFile is a downloaded, tagged audio file together with the record
// it was produced from. It is owned by the pipeline run that created it
// until handed to delivery.
type AcquiredFile struct {
	Path   string
	Record TrackRecord
}

// Outcome is the terminal state of a single-track pipeline run. Soft
// failures are outcomes, not errors; only tag failures surface as errors.
type Outcome int

const (
	OutcomeAcquired Outcome = iota
	OutcomeNotFound
	OutcomeDownloadFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAcquired:
		return "acquired"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeDownloadFailed:
		return "download_failed"
	default:
		return "unknown"
	}
}
