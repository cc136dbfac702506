package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/0xmhha/snapcam/pkg/camera"
	"github.com/0xmhha/snapcam/pkg/config"
	"github.com/0xmhha/snapcam/pkg/controller"
	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/0xmhha/snapcam/pkg/permission"
	"github.com/0xmhha/snapcam/pkg/storage"
	"github.com/0xmhha/snapcam/pkg/watcher"
	bolt "go.etcd.io/bbolt"
)

// app holds the components of one camera session run.
type app struct {
	cfg *config.Config
	log logger.Logger
	out io.Writer

	outputDir string

	db      *bolt.DB
	gallery gallery.Store
	indexer *gallery.Indexer
	watcher watcher.Watcher

	prompt *permission.Prompt
	perm   permission.Provider
	cam    camera.Provider
	ctl    controller.Controller

	wg sync.WaitGroup
}

// appOptions carries what the caller knows about the terminal.
type appOptions struct {
	// interactive is true when stdin is a terminal. Prompt mode falls
	// back to deny without one.
	interactive bool
}

// newApp opens storage and builds every component. Close releases them.
func newApp(cfg *config.Config, log logger.Logger, out io.Writer, opts appOptions) (a *app, err error) {
	a = &app{
		cfg: cfg,
		log: log,
		out: &lockedWriter{w: out},
	}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	a.outputDir, err = filepath.Abs(storage.ExpandHome(cfg.Capture.OutputDir))
	if err != nil {
		return a, fmt.Errorf("invalid output directory: %w", err)
	}
	if err = os.MkdirAll(a.outputDir, 0750); err != nil {
		return a, fmt.Errorf("failed to create output directory: %w", err)
	}

	a.db, err = storage.Open(storage.Config{Path: cfg.Storage.DBPath}, log)
	if err != nil {
		return a, err
	}

	a.gallery, err = gallery.New(a.db, log)
	if err != nil {
		return a, fmt.Errorf("failed to initialize gallery: %w", err)
	}
	a.indexer = gallery.NewIndexer(a.gallery, log)

	a.perm, err = a.permissionProvider(permission.Mode(cfg.Permission.Mode), cfg.Permission.Remember, opts.interactive)
	if err != nil {
		return a, err
	}

	a.cam, err = camera.NewProvider(camera.Config{
		Driver:      camera.Driver(cfg.Camera.Driver),
		BackDevice:  cfg.Camera.BackDevice,
		FrontDevice: cfg.Camera.FrontDevice,
		Width:       cfg.Camera.Width,
		Height:      cfg.Camera.Height,
		FFmpegPath:  cfg.Camera.FFmpegPath,
		OutputDir:   a.outputDir,
	}, log)
	if err != nil {
		return a, fmt.Errorf("failed to initialize camera: %w", err)
	}

	a.ctl, err = controller.New(controller.Config{
		PermissionTimeout: cfg.Capture.PermissionTimeout,
		AcquireTimeout:    cfg.Capture.AcquireTimeout,
		CaptureTimeout:    cfg.Capture.CaptureTimeout,
		Observers:         []controller.Observer{controller.ObserverFunc(a.recordCapture)},
	}, a.perm, a.cam, log)
	if err != nil {
		return a, fmt.Errorf("failed to initialize controller: %w", err)
	}

	return a, nil
}

// permissionProvider builds the provider for mode.
func (a *app) permissionProvider(mode permission.Mode, remember, interactive bool) (permission.Provider, error) {
	var p permission.Provider

	switch mode {
	case permission.ModeGrant:
		p = permission.Static{Granted: true}
	case permission.ModeDeny:
		p = permission.Static{Granted: false}
	case permission.ModePrompt:
		if !interactive {
			a.log.Warn("stdin is not a terminal, camera permission will be denied")
			return permission.Static{Granted: false}, nil
		}
		a.prompt = permission.NewPrompt(a.out)
		p = a.prompt
	default:
		return nil, fmt.Errorf("%w: %s", permission.ErrUnknownMode, mode)
	}

	// Only answers a person gave are worth keeping.
	if remember && mode == permission.ModePrompt {
		r, err := permission.NewRemembered(p, a.db, a.log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize permission store: %w", err)
		}
		return r, nil
	}
	return p, nil
}

// start indexes the output directory, starts watching it if configured
// and starts the controller.
func (a *app) start(ctx context.Context) error {
	if n, err := a.indexer.Scan(a.outputDir); err != nil {
		a.log.Warn("failed to scan output directory", "dir", a.outputDir, "error", err)
	} else {
		a.log.Debug("output directory indexed", "photos", n)
	}

	if a.cfg.Capture.WatchOutput {
		if err := a.startWatcher(ctx); err != nil {
			return err
		}
	}

	return a.ctl.Start(ctx)
}

func (a *app) startWatcher(ctx context.Context) error {
	w, err := watcher.New(watcher.Config{
		SettleDelay: 200 * time.Millisecond,
	}, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	a.watcher = w

	if err := w.Start(ctx, []string{a.outputDir}); err != nil {
		return fmt.Errorf("failed to watch %s: %w", a.outputDir, err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.indexer.Run(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("indexer stopped", "error", err)
		}
	}()
	return nil
}

// recordCapture adds completed captures to the gallery.
func (a *app) recordCapture(u controller.Update) {
	if u.Event != "capture_completed" || u.Status.LastCapture == nil {
		return
	}

	c := u.Status.LastCapture
	entry := &gallery.Entry{
		Path:    c.Path,
		Facing:  u.Status.Facing.String(),
		TakenAt: c.TakenAt,
	}
	if info, err := os.Stat(c.Path); err == nil {
		entry.Size = info.Size()
	}

	if err := a.gallery.Record(entry); err != nil {
		a.log.Warn("failed to record capture", "path", c.Path, "error", err)
	}
}

// Close shuts every component down. The controller goes first so the
// camera is released before anything else.
func (a *app) Close() {
	if a.ctl != nil {
		if err := a.ctl.Close(); err != nil {
			a.log.Error("failed to close controller", "error", err)
		}
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Error("failed to close watcher", "error", err)
		}
	}
	a.wg.Wait()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("failed to close database", "error", err)
		}
	}
}

// lockedWriter serializes writes from the prompt and the command loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
