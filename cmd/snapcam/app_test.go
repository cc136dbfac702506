package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0xmhha/snapcam/pkg/config"
	"github.com/0xmhha/snapcam/pkg/controller"
	"github.com/0xmhha/snapcam/pkg/display"
	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/0xmhha/snapcam/pkg/permission"
	"github.com/0xmhha/snapcam/pkg/session"
	"github.com/0xmhha/snapcam/pkg/storage"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testConfig returns a valid config using the virtual camera and temp dirs.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Camera.Driver = "virtual"
	cfg.Camera.Width = 64
	cfg.Camera.Height = 48
	cfg.Capture.OutputDir = filepath.Join(dir, "photos")
	cfg.Storage.DBPath = filepath.Join(dir, "snapcam.db")
	cfg.Permission.Mode = "grant"
	cfg.Display.ColorEnabled = false
	cfg.Logging.Level = "error"
	return cfg
}

func setupTestApp(t *testing.T, cfg *config.Config, opts appOptions) (*app, *syncBuffer) {
	t.Helper()

	out := &syncBuffer{}
	a, err := newApp(cfg, logger.Noop(), out, opts)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)

	return a, out
}

// replSession feeds the command loop through a pipe.
type replSession struct {
	in   *io.PipeWriter
	errc chan error
}

func startREPL(t *testing.T, a *app) *replSession {
	t.Helper()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() }) // nolint:errcheck

	f := display.New(display.Config{Format: display.FormatSimple})
	s := &replSession{in: pw, errc: make(chan error, 1)}

	go func() {
		s.errc <- a.repl(context.Background(), newScanReader(pr), f)
	}()

	return s
}

func (s *replSession) send(t *testing.T, line string) {
	t.Helper()
	if _, err := fmt.Fprintln(s.in, line); err != nil {
		t.Fatalf("failed to send %q: %v", line, err)
	}
}

func (s *replSession) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-s.errc:
		if err != nil {
			t.Fatalf("repl() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("repl did not return")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestREPLCaptureFlow(t *testing.T) {
	cfg := testConfig(t)
	a, out := setupTestApp(t, cfg, appOptions{})
	s := startREPL(t, a)

	s.send(t, "start")
	waitFor(t, "ready", func() bool {
		return a.ctl.Snapshot().Phase == session.PhaseReady
	})

	s.send(t, "status")
	waitFor(t, "status output", func() bool {
		return strings.Contains(out.String(), "[ready]")
	})

	s.send(t, "capture")
	waitFor(t, "capture", func() bool {
		snap := a.ctl.Snapshot()
		return snap.Phase == session.PhaseReady && snap.LastCapture != nil
	})

	capture := a.ctl.Snapshot().LastCapture
	if filepath.Dir(capture.Path) != a.outputDir {
		t.Errorf("capture dir = %s, want %s", filepath.Dir(capture.Path), a.outputDir)
	}
	if !strings.HasPrefix(filepath.Base(capture.Path), "IMG_") {
		t.Errorf("capture name = %s, want IMG_ prefix", filepath.Base(capture.Path))
	}
	if _, err := os.Stat(capture.Path); err != nil {
		t.Errorf("capture file missing: %v", err)
	}

	waitFor(t, "gallery entry", func() bool {
		entries, err := a.gallery.List(0)
		return err == nil && len(entries) == 1 && entries[0].Facing == "back"
	})

	s.send(t, "quit")
	s.wait(t)

	if phase := a.ctl.Snapshot().Phase; phase != session.PhaseIdle {
		t.Errorf("phase after quit = %s, want idle", phase)
	}
	if !strings.Contains(out.String(), "last: "+filepath.Base(capture.Path)) {
		t.Errorf("final status missing last capture:\n%s", out.String())
	}

	// Watcher and controller both saw the file; it is indexed once.
	time.Sleep(300 * time.Millisecond)
	entries, err := a.gallery.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d gallery entries, want 1", len(entries))
	}
}

func TestREPLSwitchFacing(t *testing.T) {
	cfg := testConfig(t)
	a, _ := setupTestApp(t, cfg, appOptions{})
	s := startREPL(t, a)

	s.send(t, "start")
	waitFor(t, "ready", func() bool {
		return a.ctl.Snapshot().Phase == session.PhaseReady
	})

	s.send(t, "switch")
	waitFor(t, "front camera", func() bool {
		snap := a.ctl.Snapshot()
		return snap.Phase == session.PhaseReady && !snap.Reconfiguring() && snap.Camera != nil &&
			snap.Camera.Facing.String() == "front"
	})

	s.send(t, "c")
	waitFor(t, "gallery entry", func() bool {
		entries, err := a.gallery.List(0)
		return err == nil && len(entries) == 1 && entries[0].Facing == "front"
	})

	s.send(t, "q")
	s.wait(t)
}

func TestREPLPromptPermission(t *testing.T) {
	cfg := testConfig(t)
	cfg.Permission.Mode = "prompt"
	cfg.Permission.Remember = true

	a, out := setupTestApp(t, cfg, appOptions{interactive: true})
	if a.prompt == nil {
		t.Fatal("prompt provider not created")
	}
	s := startREPL(t, a)

	s.send(t, "start")
	waitFor(t, "prompt", a.prompt.Waiting)
	if !strings.Contains(out.String(), "Allow snapcam") {
		t.Errorf("question not written:\n%s", out.String())
	}

	s.send(t, "yes")
	waitFor(t, "ready", func() bool {
		return a.ctl.Snapshot().Phase == session.PhaseReady
	})

	r, err := permission.NewRemembered(permission.Static{}, a.db, logger.Noop())
	if err != nil {
		t.Fatalf("NewRemembered() error = %v", err)
	}
	d, ok, err := r.Stored()
	if err != nil || !ok || !d.Granted {
		t.Errorf("Stored() = %+v, %v, %v, want granted", d, ok, err)
	}

	s.send(t, "quit")
	s.wait(t)
}

func TestREPLPromptDenialCanBeRetried(t *testing.T) {
	cfg := testConfig(t)
	cfg.Permission.Mode = "prompt"
	cfg.Permission.Remember = true

	a, _ := setupTestApp(t, cfg, appOptions{interactive: true})
	s := startREPL(t, a)

	s.send(t, "start")
	waitFor(t, "first prompt", a.prompt.Waiting)
	s.send(t, "no")
	waitFor(t, "denied", func() bool {
		return a.ctl.Snapshot().Permission == session.PermissionDenied
	})

	// Starting again asks again instead of replaying the denial.
	s.send(t, "start")
	waitFor(t, "second prompt", a.prompt.Waiting)
	s.send(t, "yes")
	waitFor(t, "ready", func() bool {
		return a.ctl.Snapshot().Phase == session.PhaseReady
	})

	s.send(t, "quit")
	s.wait(t)
}

func TestREPLPromptWithoutTerminalDenies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Permission.Mode = "prompt"

	a, _ := setupTestApp(t, cfg, appOptions{interactive: false})
	if a.prompt != nil {
		t.Error("prompt created without a terminal")
	}
	s := startREPL(t, a)

	s.send(t, "start")
	waitFor(t, "denied", func() bool {
		snap := a.ctl.Snapshot()
		return snap.Phase == session.PhaseIdle && snap.Permission == session.PermissionDenied
	})

	s.send(t, "capture")
	s.send(t, "quit")
	s.wait(t)

	if a.ctl.Snapshot().LastCapture != nil {
		t.Error("capture taken without permission")
	}
}

func TestREPLEndOfInputStops(t *testing.T) {
	cfg := testConfig(t)
	a, _ := setupTestApp(t, cfg, appOptions{})
	s := startREPL(t, a)

	s.send(t, "start")
	waitFor(t, "ready", func() bool {
		return a.ctl.Snapshot().Phase == session.PhaseReady
	})

	if err := s.in.Close(); err != nil {
		t.Fatal(err)
	}
	s.wait(t)

	if a.ctl.Snapshot().Camera != nil {
		t.Error("camera still held after end of input")
	}
}

func TestHandleLine(t *testing.T) {
	cfg := testConfig(t)
	a, out := setupTestApp(t, cfg, appOptions{})
	f := display.New(display.Config{Format: display.FormatSimple})

	quit, err := a.handleLine("bogus", f)
	if quit || err != nil {
		t.Errorf("handleLine(bogus) = %v, %v", quit, err)
	}
	if !strings.Contains(out.String(), "unknown command: bogus") {
		t.Errorf("missing unknown command message:\n%s", out.String())
	}

	if _, err := a.handleLine("help", f); err != nil {
		t.Errorf("handleLine(help) error = %v", err)
	}
	if !strings.Contains(out.String(), "capture (c)") {
		t.Errorf("missing help text:\n%s", out.String())
	}

	if quit, _ := a.handleLine("  QUIT ", f); !quit {
		t.Error("handleLine(QUIT) did not quit")
	}

	// Nothing is running yet.
	if _, err := a.handleLine("start", f); err == nil {
		t.Error("handleLine(start) before repl error = nil")
	}

	if _, err := a.handleLine("gallery", f); err != nil {
		t.Errorf("handleLine(gallery) error = %v", err)
	}
}

func TestRecordCaptureIgnoresOtherEvents(t *testing.T) {
	cfg := testConfig(t)
	a, _ := setupTestApp(t, cfg, appOptions{})

	a.recordCapture(controller.Update{
		Event: "camera_acquired",
		Status: session.Status{
			LastCapture: &session.Capture{Path: filepath.Join(a.outputDir, "IMG_old.jpg")},
		},
	})

	entries, err := a.gallery.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestGalleryCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testConfig(t)

	if err := os.MkdirAll(cfg.Capture.OutputDir, 0750); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"IMG_20240101_120000.jpg", "IMG_20240102_120000.jpg"} {
		if err := os.WriteFile(filepath.Join(cfg.Capture.OutputDir, name), []byte("jpeg"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Save(cfg, configPath); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := &galleryCommand{format: "simple", limit: 0, scan: true, configPath: configPath}
	if err := cmd.Execute(&out); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, name := range []string{"IMG_20240101_120000.jpg", "IMG_20240102_120000.jpg"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("output missing %s:\n%s", name, out.String())
		}
	}

	out.Reset()
	cmd = &galleryCommand{format: "yaml", configPath: configPath}
	if err := cmd.Execute(&out); err == nil {
		t.Error("Execute() with yaml format error = nil")
	}
}

func TestPermissionCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testConfig(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Save(cfg, configPath); err != nil {
		t.Fatal(err)
	}

	cmd := &permissionCommand{configPath: configPath}
	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		if err := cmd.Execute(&out, args); err != nil {
			t.Fatalf("Execute(%v) error = %v", args, err)
		}
		return out.String()
	}

	if got := run("show"); !strings.Contains(got, "not decided") {
		t.Errorf("show = %q, want not decided", got)
	}

	db, err := storage.Open(storage.Config{Path: cfg.Storage.DBPath}, logger.Noop())
	if err != nil {
		t.Fatal(err)
	}
	r, err := permission.NewRemembered(permission.Static{Granted: true}, db, logger.Noop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Request(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if got := run("show"); !strings.Contains(got, "camera: granted") {
		t.Errorf("show = %q, want granted", got)
	}

	run("forget")

	if got := run("show"); !strings.Contains(got, "not decided") {
		t.Errorf("show after forget = %q, want not decided", got)
	}
}
