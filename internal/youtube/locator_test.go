package youtube

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"spotloader/internal/core"
)

func testDownloadConfig() *core.DownloadConfig {
	cfg := core.DefaultConfig().Download
	cfg.RetryDelay = 0
	return &cfg
}

func TestLocateFirstResultWins(t *testing.T) {
	var gotArgs []string
	l := NewLocator(testDownloadConfig(), zap.NewNop())
	l.run = func(_ context.Context, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(`{
			"entries": [
				{"id": "abc123", "webpage_url": "https://www.youtube.com/watch?v=abc123", "title": "Somebody - Song (Official)"},
				{"id": "def456", "webpage_url": "https://www.youtube.com/watch?v=def456", "title": "Somebody - Song (Live)"}
			]
		}`), nil
	}

	handle, err := l.Locate(context.Background(), "Song", "Somebody")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if handle.ID != "abc123" {
		t.Errorf("expected the first search result, got %q", handle.ID)
	}
	if handle.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("URL = %q", handle.URL)
	}

	search := gotArgs[len(gotArgs)-1]
	if !strings.HasPrefix(search, "ytsearch1:") {
		t.Errorf("search term must use the single-result prefix, got %q", search)
	}
	if !strings.Contains(search, "somebody song") {
		t.Errorf("query not normalized: %q", search)
	}
}

func TestLocateNormalizesQuery(t *testing.T) {
	var search string
	l := NewLocator(testDownloadConfig(), zap.NewNop())
	l.run = func(_ context.Context, args ...string) ([]byte, error) {
		search = args[len(args)-1]
		return []byte(`{"entries": [{"id": "x"}]}`), nil
	}

	if _, err := l.Locate(context.Background(), "Déjà Vu!", "Beyoncé"); err != nil {
		t.Fatal(err)
	}
	if search != "ytsearch1:beyonce deja vu" {
		t.Errorf("search = %q", search)
	}
}

func TestLocateNoResults(t *testing.T) {
	l := NewLocator(testDownloadConfig(), zap.NewNop())
	l.run = func(context.Context, ...string) ([]byte, error) {
		return []byte(`{"entries": []}`), nil
	}

	if _, err := l.Locate(context.Background(), "Ghost", "Nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateRunnerFailure(t *testing.T) {
	l := NewLocator(testDownloadConfig(), zap.NewNop())
	l.run = func(context.Context, ...string) ([]byte, error) {
		return nil, errors.New("yt-dlp: exit status 1")
	}

	if _, err := l.Locate(context.Background(), "Song", "Somebody"); err == nil {
		t.Error("runner failure must surface")
	}
}

func TestLocateMissingWebpageURL(t *testing.T) {
	l := NewLocator(testDownloadConfig(), zap.NewNop())
	l.run = func(context.Context, ...string) ([]byte, error) {
		return []byte(`{"entries": [{"id": "abc123"}]}`), nil
	}

	handle, err := l.Locate(context.Background(), "Song", "Somebody")
	if err != nil {
		t.Fatal(err)
	}
	if handle.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("URL should be rebuilt from the video ID, got %q", handle.URL)
	}
}
