package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0xmhha/snapcam/pkg/session"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const timeLayout = "2006-01-02 15:04:05"

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	p := newPalette(cfg.Color)

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg, palette: p}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg, palette: p}
	}
}

// ValidFormat reports whether f names a known format.
func ValidFormat(f string) bool {
	switch Format(f) {
	case FormatTable, FormatJSON, FormatSimple:
		return true
	default:
		return false
	}
}

// ColorEnabled reports whether colored output should be written to w:
// wanted by configuration and w is a terminal.
func ColorEnabled(w io.Writer, want bool) bool {
	if !want {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// palette colors phase names.
type palette struct {
	ok   *color.Color
	busy *color.Color
	bad  *color.Color
	idle *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		busy: color.New(color.FgYellow),
		bad:  color.New(color.FgRed, color.Bold),
		idle: color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.ok, p.busy, p.bad, p.idle} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// phase renders a phase name.
func (p palette) phase(ph session.Phase) string {
	name := string(ph)
	switch ph {
	case session.PhaseReady:
		return p.ok.Sprint(name)
	case session.PhaseError:
		return p.bad.Sprint(name)
	case session.PhaseIdle:
		return p.idle.Sprint(name)
	default:
		return p.busy.Sprint(name)
	}
}

// controlList names the enabled controls.
func controlList(c session.Controls) string {
	var names []string
	if c.Start {
		names = append(names, "start")
	}
	if c.Capture {
		names = append(names, "capture")
	}
	if c.Switch {
		names = append(names, "switch")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, " ")
}

// formatSize formats a byte count with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
