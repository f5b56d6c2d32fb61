package youtube

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"spotloader/internal/core"
	"spotloader/pkg/retry"
)

type Acquirer struct {
	config  *core.DownloadConfig
	metrics core.Metrics
	logger  *zap.Logger
	run     runner
}

func NewAcquirer(config *core.DownloadConfig, metrics core.Metrics, logger *zap.Logger) *Acquirer {
	a := &Acquirer{config: config, metrics: metrics, logger: logger}
	a.run = a.execRun
	return a
}

func (a *Acquirer) execRun(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.config.YtDlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, stderr.String())
	}
	return nil, nil
}

// Acquire downloads the source's audio as MP3 to dst. yt-dlp writes to a
// work name first and the file is renamed into place only on success, so
// dst either exists complete or not at all. Transient failures retry with
// a fixed cooldown; exhaustion surfaces as a core.AcquisitionError.
func (a *Acquirer) Acquire(ctx context.Context, handle core.SourceHandle, dst string) (string, error) {
	if !strings.HasSuffix(dst, ".mp3") {
		dst += ".mp3"
	}
	// yt-dlp substitutes the audio extension into the output template.
	stem := strings.TrimSuffix(filepath.Base(dst), ".mp3")
	work := filepath.Join(filepath.Dir(dst), "."+stem+".part")
	workTemplate := work + ".%(ext)s"
	workOut := work + ".mp3"

	policy := retry.Fixed(a.config.MaxRetries, a.config.RetryDelay)
	policy.OnRetry = a.metrics.AcquireRetried
	attempt := 0
	err := policy.Do(ctx, func() error {
		attempt++
		_, runErr := a.run(ctx,
			"-x",
			"--audio-format", "mp3",
			"--no-playlist",
			"--no-warnings",
			"-o", workTemplate,
			handle.URL,
		)
		if runErr != nil {
			a.logger.Warn("Download attempt failed",
				zap.String("url", handle.URL),
				zap.Int("attempt", attempt),
				zap.Error(runErr))
			os.Remove(workOut)
			return runErr
		}
		return nil
	})
	if err != nil {
		os.Remove(workOut)
		return "", &core.AcquisitionError{Attempts: attempt, Err: err}
	}

	if err := os.Rename(workOut, dst); err != nil {
		os.Remove(workOut)
		return "", &core.AcquisitionError{Attempts: attempt, Err: err}
	}

	a.logger.Debug("Acquired audio",
		zap.String("url", handle.URL),
		zap.String("path", dst),
		zap.Int("attempts", attempt))
	return dst, nil
}
