package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeArchiver struct {
	mu       sync.Mutex
	calls    int
	lastDir  string
	lastZip  string
	folder   string
	fail     error
	reported int
}

func (a *fakeArchiver) Archive(dir, zipPath, folderName string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.lastDir = dir
	a.lastZip = zipPath
	a.folder = folderName
	if a.fail != nil {
		return 0, a.fail
	}
	return a.reported, nil
}

func testCollection(titles ...string) Collection {
	col := Collection{
		Link:  Link{Kind: LinkPlaylist, ID: "pl1"},
		Title: "Road Trip",
	}
	for _, title := range titles {
		col.Tracks = append(col.Tracks, testRecord(title))
	}
	return col
}

func TestBatchPartialFailuresStillArchive(t *testing.T) {
	loc := &fakeLocator{missing: map[string]bool{"Ghost": true}}
	acq := &fakeAcquirer{failFor: map[string]bool{"Flaky": true}}
	arch := &fakeArchiver{reported: 3}
	b := NewBatch(newTestPipeline(loc, acq, &fakeTagger{}, &fakeCovers{}), arch, zap.NewNop())

	col := testCollection("One", "Ghost", "Two", "Flaky", "Three")
	result, err := b.Run(context.Background(), col, "/stage/tracks", "/stage/img", func(string) {})
	if err != nil {
		t.Fatalf("partial failures must not fail the batch: %v", err)
	}

	if len(result.Acquired) != 3 {
		t.Errorf("acquired = %d, want 3", len(result.Acquired))
	}
	if result.NotFound != 1 || result.DownloadFailed != 1 || result.Total != 5 {
		t.Errorf("counters = %+v", result)
	}
	if arch.calls != 1 {
		t.Fatalf("archiver calls = %d, want 1", arch.calls)
	}
	if result.ArchivePath == "" {
		t.Error("archive path missing from result")
	}
}

func TestBatchArchiveNaming(t *testing.T) {
	arch := &fakeArchiver{reported: 1}
	b := NewBatch(newTestPipeline(&fakeLocator{}, &fakeAcquirer{}, &fakeTagger{}, &fakeCovers{}), arch, zap.NewNop())

	col := testCollection("One")
	col.Title = `Mix: "Best/Of" 2024?`

	if _, err := b.Run(context.Background(), col, "/stage/abc/tracks", "/stage/abc/img", func(string) {}); err != nil {
		t.Fatal(err)
	}

	if filepath.Dir(arch.lastZip) != "/stage/abc" {
		t.Errorf("archive should sit next to the staging dir, got %q", arch.lastZip)
	}
	base := filepath.Base(arch.lastZip)
	if strings.ContainsAny(base, `/\:?"`) || !strings.HasSuffix(base, ".zip") {
		t.Errorf("archive name not sanitized: %q", base)
	}
	if strings.ContainsAny(arch.folder, `/\:?"`) {
		t.Errorf("in-archive folder name not sanitized: %q", arch.folder)
	}
}

func TestBatchNothingAcquiredSkipsArchive(t *testing.T) {
	loc := &fakeLocator{missing: map[string]bool{"A": true, "B": true}}
	arch := &fakeArchiver{}
	b := NewBatch(newTestPipeline(loc, &fakeAcquirer{}, &fakeTagger{}, &fakeCovers{}), arch, zap.NewNop())

	result, err := b.Run(context.Background(), testCollection("A", "B"), "/t", "/c", func(string) {})
	if err != nil {
		t.Fatalf("all-soft-failure batch must not error: %v", err)
	}
	if len(result.Acquired) != 0 || result.NotFound != 2 {
		t.Errorf("result = %+v", result)
	}
	if arch.calls != 0 {
		t.Error("nothing acquired must not produce an archive")
	}
}

func TestBatchHardTrackFailureContinues(t *testing.T) {
	tag := &fakeTagger{fail: &TagWriteError{Path: "x", Err: errors.New("boom")}}
	arch := &fakeArchiver{}
	b := NewBatch(newTestPipeline(&fakeLocator{}, &fakeAcquirer{}, tag, &fakeCovers{}), arch, zap.NewNop())

	result, err := b.Run(context.Background(), testCollection("One", "Two"), "/t", "/c", func(string) {})
	if err != nil {
		t.Fatalf("per-track hard failure must not abort the batch: %v", err)
	}
	if result.DownloadFailed != 2 || len(result.Acquired) != 0 {
		t.Errorf("result = %+v", result)
	}
	if tag.calls != 2 {
		t.Errorf("both tracks must be attempted, tagged %d", tag.calls)
	}
}

func TestBatchProgressOrder(t *testing.T) {
	var updates []string
	b := NewBatch(newTestPipeline(&fakeLocator{}, &fakeAcquirer{}, &fakeTagger{}, &fakeCovers{}),
		&fakeArchiver{reported: 3}, zap.NewNop())

	_, err := b.Run(context.Background(), testCollection("One", "Two", "Three"), "/t", "/c",
		func(status string) { updates = append(updates, status) })
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"1/3: Somebody - One",
		"2/3: Somebody - Two",
		"3/3: Somebody - Three",
	}
	if len(updates) != len(want) {
		t.Fatalf("progress updates = %v", updates)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update[%d] = %q, want %q", i, updates[i], want[i])
		}
	}
}

func TestBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loc := &fakeLocator{}
	b := NewBatch(newTestPipeline(loc, &fakeAcquirer{}, &fakeTagger{}, &fakeCovers{}),
		&fakeArchiver{}, zap.NewNop())

	count := 0
	_, err := b.Run(ctx, testCollection("One", "Two", "Three"), "/t", "/c", func(string) {
		count++
		if count == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if loc.calls != 2 {
		t.Errorf("expected processing to stop after cancellation, locate calls = %d", loc.calls)
	}
}
