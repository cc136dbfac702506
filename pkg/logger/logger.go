// Package logger provides structured logging for snapcam.
//
// Every component receives a Logger in its constructor and logs with
// key/value pairs. Named scopes a logger to a component; nested names are
// joined with dots, so the camera logger of the controller logs
// component=controller.camera.
//
//	log := logger.New(logger.Config{Level: "debug", Format: "json"})
//	log.Named("controller").Info("phase changed", "from", "idle", "to", "permission_pending")
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging with levels and fields.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a logger that adds the given fields to every record.
	With(keysAndValues ...any) Logger

	// Named returns a logger tagged with component, nested under the
	// current component if there is one.
	Named(component string) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is debug, info, warn (or warning) or error. Default: info.
	Level string

	// Output is stdout, stderr or a file appended to. Default: stderr.
	Output string

	// Format is text or json. Default: text.
	Format string
}

// logger keeps fields and component apart so Named can nest names
// instead of repeating the component attribute.
type logger struct {
	fields    *slog.Logger
	component string
	out       *slog.Logger
}

func newLogger(fields *slog.Logger, component string) *logger {
	out := fields
	if component != "" {
		out = fields.With("component", component)
	}
	return &logger{fields: fields, component: component, out: out}
}

// New creates a logger writing to cfg.Output. An output that cannot be
// opened falls back to stderr.
func New(cfg Config) Logger {
	w, err := openOutput(cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapcam: %v; logging to stderr\n", err)
		w = os.Stderr
	}
	return NewWithWriter(w, cfg)
}

// NewWithWriter creates a logger writing to w. cfg.Output is ignored.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	return newLogger(slog.New(h), "")
}

func (l *logger) Debug(msg string, kv ...any) { l.out.Debug(msg, kv...) }
func (l *logger) Info(msg string, kv ...any)  { l.out.Info(msg, kv...) }
func (l *logger) Warn(msg string, kv ...any)  { l.out.Warn(msg, kv...) }
func (l *logger) Error(msg string, kv ...any) { l.out.Error(msg, kv...) }

func (l *logger) With(kv ...any) Logger {
	return newLogger(l.fields.With(kv...), l.component)
}

func (l *logger) Named(component string) Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return newLogger(l.fields, component)
}

// ValidLevel reports whether level names a log level.
func ValidLevel(level string) bool {
	_, ok := lookupLevel(level)
	return ok
}

// ValidFormat reports whether format names an output format.
func ValidFormat(format string) bool {
	return strings.EqualFold(format, "text") || strings.EqualFold(format, "json")
}

// parseLevel maps a level name to slog.Level. Unknown names are info.
func parseLevel(level string) slog.Level {
	if l, ok := lookupLevel(level); ok {
		return l
	}
	return slog.LevelInfo
}

func lookupLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// openOutput resolves stdout, stderr or a log file opened for appending.
func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- configured log path
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Default returns an info-level text logger on stderr.
func Default() Logger {
	return New(Config{})
}

// Noop returns a logger that discards everything.
func Noop() Logger {
	return NewWithWriter(io.Discard, Config{})
}
