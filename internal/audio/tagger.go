// Package audio writes ID3v2 metadata into acquired MP3 files and
// archives finished collections.
package audio

import (
	"fmt"
	"os"

	"github.com/bogem/id3v2"
	"go.uber.org/zap"

	"spotloader/internal/core"
)

type Tagger struct {
	logger *zap.Logger
}

func NewTagger(logger *zap.Logger) *Tagger {
	return &Tagger{logger: logger}
}

// Tag writes the record's metadata into the MP3 at path. Cover art is
// embedded as the front-cover picture frame when coverPath points at an
// existing JPEG; a missing cover skips the frame and is not an error.
// A write failure here is terminal for the track: an untagged file must
// never be delivered.
func (t *Tagger) Tag(path string, rec core.TrackRecord, coverPath string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return &core.TagWriteError{Path: path, Err: fmt.Errorf("open: %w", err)}
	}
	defer tag.Close()

	tag.SetTitle(rec.Title)
	tag.SetArtist(rec.Artists)
	tag.SetAlbum(rec.Album)
	tag.SetGenre(rec.Genres)
	tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, rec.ReleaseDate)
	if rec.TrackNumber > 0 {
		trck := fmt.Sprintf("%d", rec.TrackNumber)
		if rec.TotalTracks > 0 {
			trck = fmt.Sprintf("%d/%d", rec.TrackNumber, rec.TotalTracks)
		}
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, trck)
	}

	if coverPath != "" {
		if art, readErr := os.ReadFile(coverPath); readErr == nil {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     art,
			})
		} else {
			t.logger.Warn("Cover art unreadable, tagging without it",
				zap.String("cover", coverPath), zap.Error(readErr))
		}
	}

	if err := tag.Save(); err != nil {
		return &core.TagWriteError{Path: path, Err: fmt.Errorf("save: %w", err)}
	}

	t.logger.Debug("Tagged file",
		zap.String("path", path),
		zap.String("title", rec.Title),
		zap.String("artists", rec.Artists))
	return nil
}
