// Package media fetches cover art over HTTP and normalizes it to JPEG of
// a bounded size before it is embedded into tags.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // catalogs occasionally serve PNG covers
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const jpegQuality = 90

type CoverFetcher struct {
	client  *http.Client
	maxSize int
	logger  *zap.Logger
}

func NewCoverFetcher(maxSize int, logger *zap.Logger) *CoverFetcher {
	return &CoverFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		maxSize: maxSize,
		logger:  logger,
	}
}

// Fetch downloads the cover at url, re-encodes it as JPEG bounded to
// maxSize on the longer edge, and writes it to dst. Returns dst.
func (f *CoverFetcher) Fetch(ctx context.Context, url, dst string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("cover request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cover fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover fetch: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cover fetch: %w", err)
	}

	normalized, err := f.normalize(raw)
	if err != nil {
		return "", fmt.Errorf("cover decode: %w", err)
	}
	if err := os.WriteFile(dst, normalized, 0o644); err != nil {
		return "", fmt.Errorf("cover write: %w", err)
	}

	f.logger.Debug("Fetched cover art",
		zap.String("url", url),
		zap.String("path", dst),
		zap.Int("bytes", len(normalized)))
	return dst, nil
}

// normalize decodes any supported format and re-encodes as JPEG,
// downscaling with Catmull-Rom when an edge exceeds maxSize. Aspect
// ratio is preserved.
func (f *CoverFetcher) normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if f.maxSize > 0 && (width > f.maxSize || height > f.maxSize) {
		if width >= height {
			height = height * f.maxSize / width
			width = f.maxSize
		} else {
			width = width * f.maxSize / height
			height = f.maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
