// Package youtube locates and acquires track audio through yt-dlp. The
// binary is shelled out to rather than linked; its path comes from config
// so deployments can pin their own build.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"spotloader/internal/core"
	"spotloader/pkg/text"
)

// runner executes yt-dlp and returns its stdout. Indirection exists so
// tests can substitute canned output for the real binary.
type runner func(ctx context.Context, args ...string) ([]byte, error)

type Locator struct {
	config *core.DownloadConfig
	logger *zap.Logger
	run    runner
}

func NewLocator(config *core.DownloadConfig, logger *zap.Logger) *Locator {
	l := &Locator{config: config, logger: logger}
	l.run = l.execRun
	return l
}

func (l *Locator) execRun(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, l.config.YtDlpPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// searchResult mirrors the slice of yt-dlp's -J playlist output we care
// about. Unknown fields are dropped during decode.
type searchResult struct {
	Entries []struct {
		ID    string `json:"id"`
		URL   string `json:"webpage_url"`
		Title string `json:"title"`
	} `json:"entries"`
}

// Locate searches for "<artists> <title>" and returns the first result.
// The query is normalized first so diacritics and punctuation do not
// steer the search. No results maps to core.ErrNotFound.
func (l *Locator) Locate(ctx context.Context, title, artists string) (core.SourceHandle, error) {
	query := text.NormalizeQuery(artists, title)
	search := fmt.Sprintf("ytsearch%d:%s", l.config.SearchLimit, query)

	out, err := l.run(ctx, "-J", "--skip-download", "--no-warnings", search)
	if err != nil {
		return core.SourceHandle{}, fmt.Errorf("search %q: %w", query, err)
	}

	var result searchResult
	if err := json.Unmarshal(out, &result); err != nil {
		return core.SourceHandle{}, fmt.Errorf("search %q: decode: %w", query, err)
	}
	if len(result.Entries) == 0 {
		return core.SourceHandle{}, fmt.Errorf("search %q: %w", query, core.ErrNotFound)
	}

	entry := result.Entries[0]
	url := entry.URL
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + entry.ID
	}
	l.logger.Debug("Located source",
		zap.String("query", query),
		zap.String("url", url),
		zap.String("source_title", entry.Title))

	return core.SourceHandle{ID: entry.ID, URL: url, Title: entry.Title}, nil
}
