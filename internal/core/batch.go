package core

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"spotloader/pkg/text"
)

// BatchResult summarizes one collection run.
type BatchResult struct {
	ArchivePath    string
	Acquired       []AcquiredFile
	NotFound       int
	DownloadFailed int
	Total          int
}

// Batch drives the track pipeline over a collection, one track at a time.
// Sequential processing keeps progress reporting monotonic and bounds
// outbound bandwidth to the video host; one track's soft failure never
// aborts the rest of the batch.
type Batch struct {
	pipeline *Pipeline
	archiver Archiver
	logger   *zap.Logger
}

func NewBatch(pipeline *Pipeline, archiver Archiver, logger *zap.Logger) *Batch {
	return &Batch{
		pipeline: pipeline,
		archiver: archiver,
		logger:   logger,
	}
}

// Run processes every track of col, staging files under trackDir/coverDir,
// and packages the successes into a zip archive next to trackDir. progress
// is invoked before each track attempt and must tolerate being called from
// this goroutine only. A nil error with zero acquired tracks means the
// whole collection failed soft.
func (b *Batch) Run(ctx context.Context, col Collection, trackDir, coverDir string, progress func(string)) (*BatchResult, error) {
	result := &BatchResult{Total: len(col.Tracks)}

	for i, rec := range col.Tracks {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		progress(fmt.Sprintf("%d/%d: %s - %s", i+1, len(col.Tracks), rec.Artists, rec.Title))

		file, outcome, err := b.pipeline.Run(ctx, rec, trackDir, coverDir)
		if err != nil {
			// Tag failures are hard for a single track but still must not
			// take down the batch; the track is dropped like a soft failure.
			b.logger.Error("Track failed hard, continuing batch",
				zap.String("title", rec.Title), zap.Error(err))
			result.DownloadFailed++
			continue
		}
		switch outcome {
		case OutcomeAcquired:
			result.Acquired = append(result.Acquired, *file)
		case OutcomeNotFound:
			result.NotFound++
			b.logger.Info("Track skipped", zap.String("title", rec.Title), zap.String("outcome", outcome.String()))
		case OutcomeDownloadFailed:
			result.DownloadFailed++
			b.logger.Info("Track skipped", zap.String("title", rec.Title), zap.String("outcome", outcome.String()))
		}
	}

	if len(result.Acquired) == 0 {
		return result, nil
	}

	zipName := text.SanitizeFilename(col.Title) + ".zip"
	zipPath := filepath.Join(filepath.Dir(trackDir), zipName)
	count, err := b.archiver.Archive(trackDir, zipPath, text.SanitizeFilename(col.Title))
	if err != nil {
		return result, fmt.Errorf("packaging collection archive: %w", err)
	}

	b.logger.Info("Collection archived",
		zap.String("collection", col.Title),
		zap.Int("archived", count),
		zap.Int("requested", result.Total))

	result.ArchivePath = zipPath
	return result, nil
}
