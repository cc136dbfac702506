package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

var defaultExtensions = []string{".jpg", ".jpeg"}

// watcher implements Watcher. A single loop goroutine per Start owns the
// settle state and is the only sender on the photos and errs channels.
type watcher struct {
	fsw    *fsnotify.Watcher
	log    logger.Logger
	config Config

	photos chan Event
	errs   chan error

	mu     sync.Mutex
	closed bool
	active *run
}

// run is one Start..Stop cycle.
type run struct {
	dirs []string
	stop chan struct{}
	done chan struct{}
}

// New creates a capture directory watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 100 * time.Millisecond
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = defaultExtensions
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:    fsw,
		log:    log.Named("watcher"),
		config: cfg,
		photos: make(chan Event, 64),
		errs:   make(chan error, 8),
	}

	w.log.Debug("capture watcher created",
		"settle_delay", cfg.SettleDelay,
		"extensions", cfg.Extensions)

	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.active != nil {
		return ErrAlreadyStarted
	}

	dirs, err := w.captureDirs(paths)
	if err != nil {
		return err
	}

	for i, dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			w.unwatch(dirs[:i])
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	r := &run{
		dirs: dirs,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	w.active = r

	go w.loop(ctx, r)

	w.log.Info("watching capture directories", "dirs", dirs)
	return nil
}

// captureDirs keeps the paths that are existing directories. Missing
// paths and plain files are skipped with a warning.
func (w *watcher) captureDirs(paths []string) ([]string, error) {
	var dirs []string
	for _, p := range paths {
		dir := filepath.Clean(p)

		info, err := os.Stat(dir)
		switch {
		case os.IsNotExist(err):
			w.log.Warn("capture directory does not exist, skipping", "dir", dir)
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
		case !info.IsDir():
			w.log.Warn("capture path is not a directory, skipping", "path", dir)
			continue
		}

		dirs = append(dirs, dir)
	}

	if len(dirs) == 0 {
		return nil, ErrInvalidPath
	}
	return dirs, nil
}

func (w *watcher) unwatch(dirs []string) {
	for _, dir := range dirs {
		if err := w.fsw.Remove(dir); err != nil {
			w.log.Debug("failed to remove watch", "dir", dir, "error", err)
		}
	}
}

// Stop implements Watcher.Stop. Photos still settling are reported
// before it returns.
func (w *watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	r := w.active
	if r == nil {
		w.mu.Unlock()
		return ErrNotStarted
	}
	w.active = nil
	w.mu.Unlock()

	close(r.stop)
	<-r.done
	w.unwatch(r.dirs)

	w.log.Info("capture watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.photos
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errs
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	r := w.active
	w.active = nil
	w.mu.Unlock()

	if r != nil {
		close(r.stop)
		<-r.done
	}

	// The loop has exited, nothing sends any more.
	close(w.photos)
	close(w.errs)

	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.log.Debug("capture watcher closed")
	return nil
}

func (w *watcher) loop(ctx context.Context, r *run) {
	defer close(r.done)

	s := newSettler(w.config.SettleDelay)
	defer s.halt()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-r.stop:
			for _, e := range s.flush() {
				w.emit(e)
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			op, known := translate(ev.Op)
			if !known || !w.isPhoto(ev.Name) {
				continue
			}
			failures = 0
			s.add(ev.Name, op, time.Now())

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			failures++
			w.report(err, failures)

		case now := <-s.ready():
			for _, e := range s.due(now) {
				w.emit(e)
			}
		}
	}
}

// translate maps an fsnotify operation to whether the photo is still on
// disk. Permission changes do not alter the photo and are dropped.
func translate(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// isPhoto reports whether name is a visible file with a photo extension.
func (w *watcher) isPhoto(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}

	ext := filepath.Ext(base)
	for _, want := range w.config.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func (w *watcher) emit(e Event) {
	select {
	case w.photos <- e:
	default:
		w.log.Warn("photo channel full, dropping event", "path", e.Path, "op", e.Op)
	}
}

// report forwards an fsnotify error. From MaxFailures consecutive
// failures on, the error is wrapped in ErrCircuitBreakerOpen.
func (w *watcher) report(err error, failures int) {
	w.log.Error("fsnotify error", "error", err, "failures", failures)

	if failures >= w.config.MaxFailures {
		err = fmt.Errorf("%w after %d failures: %v", ErrCircuitBreakerOpen, failures, err)
	}

	select {
	case w.errs <- err:
	default:
		w.log.Warn("error channel full, dropping error")
	}
}

// settler holds photo events until their file has been quiet for delay.
// The last operation on a path wins.
type settler struct {
	delay   time.Duration
	pending map[string]Event
	timer   *time.Timer
}

func newSettler(delay time.Duration) *settler {
	return &settler{delay: delay, pending: make(map[string]Event)}
}

func (s *settler) add(path string, op Op, now time.Time) {
	s.pending[path] = Event{Path: path, Op: op, Timestamp: now}
	s.arm(now)
}

// ready fires when the earliest pending photo has settled. It is nil,
// and blocks forever, while nothing is pending.
func (s *settler) ready() <-chan time.Time {
	if s.timer == nil || len(s.pending) == 0 {
		return nil
	}
	return s.timer.C
}

// due removes and returns the photos settled at now, then rearms.
func (s *settler) due(now time.Time) []Event {
	var out []Event
	for path, e := range s.pending {
		if !e.Timestamp.Add(s.delay).After(now) {
			out = append(out, e)
			delete(s.pending, path)
		}
	}
	s.arm(now)
	return out
}

func (s *settler) flush() []Event {
	out := make([]Event, 0, len(s.pending))
	for path, e := range s.pending {
		out = append(out, e)
		delete(s.pending, path)
	}
	return out
}

func (s *settler) arm(now time.Time) {
	if len(s.pending) == 0 {
		return
	}

	var next time.Time
	for _, e := range s.pending {
		if at := e.Timestamp.Add(s.delay); next.IsZero() || at.Before(next) {
			next = at
		}
	}
	wait := max(next.Sub(now), 0)

	if s.timer == nil {
		s.timer = time.NewTimer(wait)
		return
	}
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
	s.timer.Reset(wait)
}

func (s *settler) halt() {
	if s.timer != nil {
		s.timer.Stop()
	}
}
