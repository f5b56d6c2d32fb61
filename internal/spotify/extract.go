package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"
)

// UnknownField is the sentinel for cosmetic metadata the catalog omits.
// Missing cosmetic fields never fail a pipeline run; only an absent title
// or artist does, and that is the pipeline's call, not the extractor's.
const UnknownField = "Unknown"

// Title returns the track's name, or "Unknown" when absent.
func Title(t *spotify.FullTrack) string {
	if t.Name == "" {
		return UnknownField
	}
	return t.Name
}

// Artists returns the display-joined artist names, or "Unknown".
func Artists(t *spotify.FullTrack) string {
	if len(t.Artists) == 0 {
		return UnknownField
	}
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// AlbumName returns the parent album's name, or "Unknown".
func AlbumName(t *spotify.FullTrack) string {
	if t.Album.Name == "" {
		return UnknownField
	}
	return t.Album.Name
}

// ReleaseDate returns the album release date as provided by the catalog
// ("2006", "2006-01" or "2006-01-02"), or "Unknown".
func ReleaseDate(t *spotify.FullTrack) string {
	if t.Album.ReleaseDate == "" {
		return UnknownField
	}
	return t.Album.ReleaseDate
}

// CoverURL returns the widest album image URL, or "" when the album has no
// artwork. An empty cover URL is valid: tagging proceeds without a picture.
func CoverURL(t *spotify.FullTrack) string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// TrackNumber returns the 1-based track number, 0 when absent.
func TrackNumber(t *spotify.FullTrack) int {
	return int(t.TrackNumber)
}

// TotalTracks returns the album's track count, 0 when absent.
func TotalTracks(t *spotify.FullTrack) int {
	return int(t.Album.TotalTracks)
}

// joinGenres comma-joins an artist's genre list, or "Unknown" for none.
func joinGenres(genres []string) string {
	if len(genres) == 0 {
		return UnknownField
	}
	return strings.Join(genres, ", ")
}
