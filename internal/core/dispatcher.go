package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spotloader/internal/chat"
)

// User-facing replies. Terminal states always map to short human-readable
// text; raw errors never reach the chat.
const (
	replyWelcome     = "Hello! Send me a Spotify track, album or playlist URL and I'll fetch the audio for you."
	replyInvalid     = "Please send a valid Spotify track, album or playlist URL."
	replyBusy        = "I'm still working on your previous request, please wait for it to finish."
	replyPrivate     = "That collection looks private or unavailable, I can't read its tracks."
	replyEmpty       = "That collection has no tracks I can download."
	replyNotFound    = "Sorry, I couldn't find that track."
	replyDownloadErr = "Downloading that track failed, please try again later."
	replyFailure     = "Something went wrong while processing your request. Please try again later."
	replyProgressNew = "Working on it..."
	replySent        = "Sent ✅"
	replyNoneFound   = "None of the tracks could be found ❌"
)

// Dispatcher routes inbound chat messages into pipeline or batch runs. One
// run is spawned per request; requests from different chats proceed
// concurrently, while a chat with a run in flight gets a busy reply.
type Dispatcher struct {
	config   *Config
	catalog  Catalog
	pipeline *Pipeline
	batch    *Batch
	frontend chat.Frontend
	dedup    UpdateDedup
	cache    DeliveryCache
	metrics  Metrics
	logger   *zap.Logger

	inflight map[string]struct{}
	mu       sync.Mutex
}

func NewDispatcher(
	config *Config,
	catalog Catalog,
	pipeline *Pipeline,
	batch *Batch,
	frontend chat.Frontend,
	dedup UpdateDedup,
	cache DeliveryCache,
	metrics Metrics,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		config:   config,
		catalog:  catalog,
		pipeline: pipeline,
		batch:    batch,
		frontend: frontend,
		dedup:    dedup,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// HandleMessage is the frontend's message callback. It classifies the
// message and spawns the matching run in its own goroutine so the listener
// is never blocked by a download.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *chat.Message) {
	updateKey := msg.ChatID + ":" + msg.ID
	if d.dedup.Seen(updateKey) {
		d.logger.Debug("Ignoring already processed update", zap.String("update", updateKey))
		return
	}
	d.dedup.Mark(updateKey)

	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/start") {
		d.reply(ctx, msg, replyWelcome)
		return
	}

	link, ok := d.findLink(msg)
	if !ok {
		d.reply(ctx, msg, replyInvalid)
		d.metrics.RequestHandled("invalid", "rejected")
		return
	}

	if !d.acquireChat(msg.ChatID) {
		d.reply(ctx, msg, replyBusy)
		d.metrics.RequestHandled(string(link.Kind), "busy")
		return
	}

	go func() {
		defer d.releaseChat(msg.ChatID)
		started := time.Now()

		var err error
		if link.Kind == LinkTrack {
			err = d.handleTrack(ctx, msg, link)
		} else {
			err = d.handleCollection(ctx, msg, link)
		}

		status := "ok"
		if err != nil {
			status = "error"
			d.logger.Error("Request failed",
				zap.String("kind", string(link.Kind)),
				zap.String("id", link.ID),
				zap.Error(err))
			d.reply(ctx, msg, replyFailure)
		}
		d.metrics.RequestHandled(string(link.Kind), status)
		d.metrics.ObserveProcessing(string(link.Kind), time.Since(started).Seconds())
	}()
}

// findLink scans the message's extracted URLs, then the raw text, for the
// first resolvable Spotify link.
func (d *Dispatcher) findLink(msg *chat.Message) (Link, bool) {
	candidates := append([]string{}, msg.URLs...)
	for _, field := range strings.Fields(msg.Text) {
		candidates = append(candidates, field)
	}
	for _, raw := range candidates {
		if link, err := d.catalog.ResolveLink(raw); err == nil {
			return link, true
		}
	}
	return Link{}, false
}

func (d *Dispatcher) handleTrack(ctx context.Context, msg *chat.Message, link Link) error {
	if fileID, ok := d.cache.Get(link.ID); ok {
		d.logger.Info("Serving track from delivery cache", zap.String("track", link.ID))
		if err := d.frontend.SendAudioByID(ctx, msg.ChatID, fileID); err == nil {
			d.metrics.TrackAcquired("cached")
			return nil
		}
		// A stale file ID falls through to a fresh pipeline run.
		d.logger.Warn("Cached file ID rejected by transport, re-acquiring", zap.String("track", link.ID))
		if delErr := d.cache.Delete(link.ID); delErr != nil {
			d.logger.Warn("Delivery cache delete failed", zap.Error(delErr))
		}
	}

	rec, err := d.catalog.Track(ctx, link.ID)
	if err != nil {
		return fmt.Errorf("fetching track record: %w", err)
	}

	progressID, _ := d.frontend.SendText(ctx, msg.ChatID, msg.ID, replyProgressNew)
	d.editProgress(ctx, msg.ChatID, progressID, fmt.Sprintf("Downloading %s - %s...", rec.Artists, rec.Title))

	trackDir, coverDir, cleanup, err := d.stagingDirs(link.ID)
	if err != nil {
		return err
	}
	defer cleanup()

	file, outcome, err := d.pipeline.Run(ctx, rec, trackDir, coverDir)
	if err != nil {
		return err
	}

	switch outcome {
	case OutcomeAcquired:
		fileID, sendErr := d.frontend.SendAudio(ctx, msg.ChatID, file.Path, file.Record.Title, file.Record.Artists)
		if sendErr != nil {
			d.logger.Warn("Audio delivery failed", zap.Error(sendErr))
		} else if cacheErr := d.cache.Put(link.ID, fileID); cacheErr != nil {
			d.logger.Warn("Delivery cache write failed", zap.Error(cacheErr))
		}
		d.editProgress(ctx, msg.ChatID, progressID, replySent)
	case OutcomeNotFound:
		d.editProgress(ctx, msg.ChatID, progressID, replyNotFound)
	case OutcomeDownloadFailed:
		d.editProgress(ctx, msg.ChatID, progressID, replyDownloadErr)
	}
	d.metrics.TrackAcquired(outcome.String())
	return nil
}

func (d *Dispatcher) handleCollection(ctx context.Context, msg *chat.Message, link Link) error {
	if !d.catalog.CollectionAccessible(ctx, link) {
		d.reply(ctx, msg, replyPrivate)
		return nil
	}

	col, err := d.catalog.Collection(ctx, link)
	if err != nil {
		return fmt.Errorf("fetching collection: %w", err)
	}
	if len(col.Tracks) == 0 {
		d.reply(ctx, msg, replyEmpty)
		return nil
	}

	progressID, _ := d.frontend.SendText(ctx, msg.ChatID, msg.ID, replyProgressNew)

	trackDir, coverDir, cleanup, err := d.stagingDirs(link.ID)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := d.batch.Run(ctx, col, trackDir, coverDir, func(status string) {
		d.editProgress(ctx, msg.ChatID, progressID, status)
	})
	if err != nil {
		return err
	}

	for range result.Acquired {
		d.metrics.TrackAcquired(OutcomeAcquired.String())
	}
	for i := 0; i < result.NotFound; i++ {
		d.metrics.TrackAcquired(OutcomeNotFound.String())
	}
	for i := 0; i < result.DownloadFailed; i++ {
		d.metrics.TrackAcquired(OutcomeDownloadFailed.String())
	}

	if len(result.Acquired) == 0 {
		d.editProgress(ctx, msg.ChatID, progressID, replyNoneFound)
		return nil
	}

	if err := d.frontend.SendDocument(ctx, msg.ChatID, result.ArchivePath); err != nil {
		d.logger.Warn("Archive delivery failed", zap.Error(err))
	}
	d.editProgress(ctx, msg.ChatID, progressID, replySent)
	return nil
}

// stagingDirs builds a per-request working tree keyed by the request's
// catalog identifier plus a random component, so display titles never
// become path segments and concurrent requests cannot collide.
func (d *Dispatcher) stagingDirs(id string) (trackDir, coverDir string, cleanup func(), err error) {
	root := filepath.Join(d.config.Media.Dir, id+"-"+uuid.NewString()[:8])
	trackDir = filepath.Join(root, "tracks")
	coverDir = filepath.Join(root, "img")
	for _, dir := range []string{trackDir, coverDir} {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return "", "", nil, fmt.Errorf("creating staging directory: %w", err)
		}
	}
	cleanup = func() {
		if rmErr := os.RemoveAll(root); rmErr != nil {
			d.logger.Warn("Staging cleanup failed", zap.String("dir", root), zap.Error(rmErr))
		}
	}
	return trackDir, coverDir, cleanup, nil
}

func (d *Dispatcher) acquireChat(chatID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[chatID]; busy {
		return false
	}
	d.inflight[chatID] = struct{}{}
	return true
}

func (d *Dispatcher) releaseChat(chatID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, chatID)
}

// reply and editProgress swallow transport errors: a user not receiving a
// response already has the best-effort progress updates.
func (d *Dispatcher) reply(ctx context.Context, msg *chat.Message, text string) {
	if _, err := d.frontend.SendText(ctx, msg.ChatID, msg.ID, text); err != nil {
		d.logger.Warn("Text delivery failed", zap.Error(err))
	}
}

func (d *Dispatcher) editProgress(ctx context.Context, chatID, msgID, text string) {
	if msgID == "" {
		return
	}
	if err := d.frontend.EditText(ctx, chatID, msgID, text); err != nil {
		d.logger.Warn("Progress edit failed", zap.Error(err))
	}
}
