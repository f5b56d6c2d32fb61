package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"spotloader/pkg/text"
)

// Pipeline turns one normalized track record into a tagged local audio
// file. Every step up to tagging fails soft: the run ends with a terminal
// Outcome the caller can branch on. Tagging is the only hard failure,
// because an untagged or corrupt file is a worse user outcome than no file.
type Pipeline struct {
	locator  Locator
	acquirer Acquirer
	tagger   Tagger
	covers   CoverFetcher
	logger   *zap.Logger
}

func NewPipeline(locator Locator, acquirer Acquirer, tagger Tagger, covers CoverFetcher, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		locator:  locator,
		acquirer: acquirer,
		tagger:   tagger,
		covers:   covers,
		logger:   logger,
	}
}

// Run executes the pipeline for rec, staging the audio file in trackDir and
// the cover image in coverDir. On success it returns the acquired file and
// OutcomeAcquired. Soft failures return a nil file and the distinguishing
// outcome with a nil error; only a tag write failure returns a non-nil error.
func (p *Pipeline) Run(ctx context.Context, rec TrackRecord, trackDir, coverDir string) (*AcquiredFile, Outcome, error) {
	log := p.logger.With(zap.String("title", rec.Title), zap.String("artists", rec.Artists))

	if rec.Title == "" || rec.Artists == "" {
		log.Warn("Skipping track with incomplete metadata", zap.Error(ErrIncompleteMetadata))
		return nil, OutcomeNotFound, nil
	}

	handle, err := p.locator.Locate(ctx, rec.Title, rec.Artists)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("No source found for track")
			return nil, OutcomeNotFound, nil
		}
		log.Warn("Source lookup failed", zap.Error(err))
		return nil, OutcomeNotFound, nil
	}

	dst := filepath.Join(trackDir, text.SanitizeFilename(rec.Title)+".mp3")
	path, err := p.acquirer.Acquire(ctx, handle, dst)
	if err != nil {
		log.Warn("Download failed", zap.Error(err))
		return nil, OutcomeDownloadFailed, nil
	}

	// The cover is best effort: a missing or failed download degrades to a
	// file without embedded artwork, never to a failed track.
	coverPath := ""
	if rec.CoverURL != "" {
		coverPath, err = p.covers.Fetch(ctx, rec.CoverURL, filepath.Join(coverDir, coverName(rec)))
		if err != nil {
			log.Warn("Cover download failed, tagging without artwork", zap.Error(err))
			coverPath = ""
		}
	}

	if err := p.tagger.Tag(path, rec, coverPath); err != nil {
		log.Error("Tag write failed", zap.Error(err))
		return nil, OutcomeDownloadFailed, fmt.Errorf("tagging acquired track: %w", err)
	}

	log.Info("Track acquired", zap.String("path", path))
	return &AcquiredFile{Path: path, Record: rec}, OutcomeAcquired, nil
}

// coverName keys cover files by track ID where available so concurrent runs
// with identically named tracks cannot clobber each other's artwork.
func coverName(rec TrackRecord) string {
	if rec.ID != "" {
		return rec.ID + ".jpg"
	}
	return text.SanitizeFilename(rec.Title) + ".jpg"
}
