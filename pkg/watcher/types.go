// Package watcher reports photos appearing in and leaving capture
// directories.
//
// A JPEG written by the camera arrives as a burst of create and write
// notifications. The watcher holds each path until its file has been quiet
// for the settle delay and then reports it once, with the last operation.
//
//	w, err := watcher.New(watcher.Config{SettleDelay: 200 * time.Millisecond}, log)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{outputDir}); err != nil {
//	    return err
//	}
//	for e := range w.Events() {
//	    log.Info("photo changed", "path", e.Path, "gone", e.Op.Gone())
//	}
package watcher

import (
	"context"
	"time"
)

// Op is the last operation seen on a photo before it settled.
type Op uint8

// Photo operations.
const (
	OpCreate Op = iota + 1
	OpWrite
	OpRemove
	OpRename // moved away; a move into the directory is a create
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Gone reports whether the file no longer exists at its path after op.
func (op Op) Gone() bool {
	return op == OpRemove || op == OpRename
}

// Event reports a settled photo.
type Event struct {
	Path string
	Op   Op

	// Timestamp is when the last operation was seen.
	Timestamp time.Time
}

// Watcher reports photos in capture directories.
type Watcher interface {
	// Start watches the directories among paths that exist. It returns
	// once the watches are installed; photos are reported until ctx is
	// done or Stop is called.
	Start(ctx context.Context, paths []string) error

	// Stop removes the watches. A stopped watcher can be started again.
	Stop() error

	// Events returns settled photos. Closed by Close.
	Events() <-chan Event

	// Errors returns non-fatal fsnotify errors. Closed by Close.
	Errors() <-chan error

	Close() error
}

// Config contains watcher configuration. Only files directly inside the
// watched directories are reported.
type Config struct {
	// SettleDelay is how long a photo must go without a new operation
	// before it is reported. Default: 100ms.
	SettleDelay time.Duration

	// Extensions are the photo suffixes, compared case-insensitively.
	// Hidden files never match. Default: .jpg and .jpeg.
	Extensions []string

	// MaxFailures is the number of consecutive fsnotify errors after
	// which reported errors wrap ErrCircuitBreakerOpen. Default: 5.
	MaxFailures int
}
