package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/0xmhha/snapcam/pkg/watcher"
)

// Indexer keeps a Store in step with the image files in the capture
// directory.
type Indexer struct {
	store  Store
	logger logger.Logger
}

// NewIndexer creates an indexer writing to store.
func NewIndexer(store Store, log logger.Logger) *Indexer {
	return &Indexer{
		store:  store,
		logger: log.Named("indexer"),
	}
}

// Run applies watcher events to the store until ctx is cancelled or the
// event channel closes. Watcher errors are logged and do not stop Run.
func (ix *Indexer) Run(ctx context.Context, w watcher.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			if err := ix.Apply(event); err != nil {
				ix.logger.Warn("failed to index event",
					"path", event.Path,
					"op", event.Op,
					"error", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			ix.logger.Warn("watcher error", "error", err)
		}
	}
}

// Apply indexes a single watcher event.
func (ix *Indexer) Apply(event watcher.Event) error {
	if event.Op.Gone() {
		return ix.store.DeletePath(event.Path)
	}
	return ix.indexFile(event.Path)
}

// Scan indexes every image directly inside dir and drops entries whose
// file has disappeared. It returns the number of files indexed.
func (ix *Indexer) Scan(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	indexed := 0
	for _, de := range entries {
		if de.IsDir() || !isImage(de.Name()) {
			continue
		}

		if err := ix.indexFile(filepath.Join(dir, de.Name())); err != nil {
			ix.logger.Warn("failed to index file", "name", de.Name(), "error", err)
			continue
		}
		indexed++
	}

	if err := ix.prune(); err != nil {
		return indexed, err
	}

	ix.logger.Debug("scan complete", "dir", dir, "indexed", indexed)
	return indexed, nil
}

// indexFile records path unless it is empty. A file still being written
// is picked up by its next write event.
func (ix *Indexer) indexFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix.store.DeletePath(path)
		}
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	entry := &Entry{Path: path, Size: info.Size()}

	// Keep the capture time of photos the controller already recorded.
	if _, getErr := ix.store.GetByPath(path); errors.Is(getErr, ErrNotFound) {
		entry.TakenAt = info.ModTime()
	} else if getErr != nil {
		return getErr
	}

	return ix.store.Record(entry)
}

func (ix *Indexer) prune() error {
	all, err := ix.store.List(0)
	if err != nil {
		return err
	}

	for _, e := range all {
		if _, statErr := os.Stat(e.Path); os.IsNotExist(statErr) {
			if delErr := ix.store.Delete(e.ID); delErr != nil {
				return delErr
			}
		}
	}
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}
