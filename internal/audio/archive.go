package audio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type Archiver struct {
	logger *zap.Logger
}

func NewArchiver(logger *zap.Logger) *Archiver {
	return &Archiver{logger: logger}
}

// Archive zips every MP3 directly under dir into zipPath, placing the
// entries inside folderName so the archive extracts into one directory.
// Non-MP3 files (covers, partials) are never included. Returns the
// number of archived files.
func (a *Archiver) Archive(dir, zipPath, folderName string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp3") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return 0, fmt.Errorf("no tracks to archive in %s", dir)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", zipPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), folderName+"/"+name); err != nil {
			zw.Close()
			os.Remove(zipPath)
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		os.Remove(zipPath)
		return 0, fmt.Errorf("finalize %s: %w", zipPath, err)
	}

	a.logger.Info("Archived tracks",
		zap.String("zip", zipPath),
		zap.Int("count", len(names)))
	return len(names), nil
}

func addFile(zw *zip.Writer, path, entryName string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// MP3 is already compressed; Store avoids wasted CPU.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: entryName, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("entry %s: %w", entryName, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("entry %s: %w", entryName, err)
	}
	return nil
}
