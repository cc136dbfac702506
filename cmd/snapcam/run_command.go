package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/0xmhha/snapcam/pkg/config"
	"github.com/0xmhha/snapcam/pkg/display"
	"github.com/0xmhha/snapcam/pkg/permission"
	"github.com/0xmhha/snapcam/pkg/session"
)

// runCommand runs an interactive camera session.
type runCommand struct {
	driver     string
	permission string
	format     string
	outputDir  string
	configPath string
}

// Execute runs the run command.
func (c *runCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if err := c.applyFlags(cfg); err != nil {
		return err
	}

	log := newLogger(cfg)

	lines, out := newLineReader(os.Stdin, os.Stdout)
	defer func() {
		if err := lines.Close(); err != nil {
			log.Debug("failed to close line reader", "error", err)
		}
	}()

	a, err := newApp(cfg, log, out, appOptions{
		interactive: permission.Interactive(os.Stdin),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := display.New(display.Config{
		Format:    display.Format(cfg.Display.Format),
		Color:     display.ColorEnabled(os.Stdout, cfg.Display.ColorEnabled),
		ShowPaths: cfg.Display.ShowPaths,
		Compact:   true,
	})

	return a.repl(ctx, lines, formatter)
}

// applyFlags overrides cfg with the flags that were set.
func (c *runCommand) applyFlags(cfg *config.Config) error {
	if c.driver != "" {
		cfg.Camera.Driver = c.driver
	}
	if c.permission != "" {
		cfg.Permission.Mode = strings.ToLower(c.permission)
	}
	if c.format != "" {
		cfg.Display.Format = c.format
	}
	if c.outputDir != "" {
		cfg.Capture.OutputDir = c.outputDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// repl starts the session and reads commands from in until quit, end of
// input or ctx is done. Every status update is rendered with f.
func (a *app) repl(ctx context.Context, in lineReader, f display.Formatter) error {
	if err := a.start(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "snapcam ready - type 'help' for commands")

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return a.finish(f)

		case u, ok := <-a.ctl.Updates():
			if !ok {
				return nil
			}
			a.render(f, u.Status)

		case line, ok := <-lines:
			if !ok {
				return a.finish(f)
			}
			quit, err := a.handleLine(line, f)
			if err != nil && ctx.Err() == nil {
				return err
			}
			if quit || err != nil {
				return a.finish(f)
			}
		}
	}
}

// readLines feeds lines from in to the returned channel until in ends or
// done is closed.
func readLines(in lineReader, done <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		for {
			line, err := in.ReadLine()
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()

	return lines
}

// handleLine runs one session command. It reports whether to quit.
func (a *app) handleLine(line string, f display.Formatter) (bool, error) {
	line = strings.TrimSpace(line)

	if a.prompt != nil && a.prompt.Waiting() && a.prompt.Answer(line) {
		return false, nil
	}

	var ev session.Event

	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "start", "s":
		ev = session.StartRequested{}
	case "capture", "c", "snap":
		ev = session.CaptureRequested{}
	case "switch", "w":
		ev = session.SwitchFacingRequested{}
	case "teardown", "stop", "t":
		ev = session.Teardown{}
	case "status":
		a.render(f, a.ctl.Snapshot().Status())
		return false, nil
	case "gallery", "g":
		return false, a.showGallery(f, 5)
	case "help", "?":
		showSessionHelp(a.out)
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	default:
		fmt.Fprintf(a.out, "unknown command: %s (type 'help')\n", line)
		return false, nil
	}

	if err := a.ctl.Dispatch(ev); err != nil {
		return false, fmt.Errorf("failed to dispatch %s: %w", session.EventName(ev), err)
	}
	return false, nil
}

// finish stops the session and shows where it ended.
func (a *app) finish(f display.Formatter) error {
	if err := a.ctl.Stop(); err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}
	a.render(f, a.ctl.Snapshot().Status())
	return nil
}

func (a *app) render(f display.Formatter, st session.Status) {
	if err := f.FormatStatus(a.out, st); err != nil {
		a.log.Warn("failed to render status", "error", err)
	}
}

func (a *app) showGallery(f display.Formatter, limit int) error {
	entries, err := a.gallery.List(limit)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	return f.FormatGallery(a.out, entries)
}

func showSessionHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  start (s)      request permission and open the camera
  capture (c)    take a photo
  switch (w)     switch between back and front cameras
  teardown (t)   close the camera
  status         show the current status
  gallery (g)    show the latest photos
  quit (q)       close the camera and exit
`)
}
