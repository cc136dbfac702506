// Package display renders session status and the photo gallery.
//
// It supports multiple output formats (table, JSON, simple text). Phase
// names are colored when color is enabled.
package display

import (
	"io"
	"path/filepath"

	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/session"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays records as aligned tables.
	FormatTable Format = "table"

	// FormatJSON displays records as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays one line per record.
	FormatSimple Format = "simple"
)

// Formatter formats session status and gallery listings.
type Formatter interface {
	// FormatStatus writes one status record.
	FormatStatus(w io.Writer, st session.Status) error

	// FormatGallery writes gallery entries in the order given.
	FormatGallery(w io.Writer, entries []*gallery.Entry) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Color enables colored phase names. Callers usually combine the
	// configured preference with ColorEnabled.
	Color bool

	// ShowTimestamps adds capture and update times to status output.
	ShowTimestamps bool

	// ShowPaths shows full photo paths and the preview URI instead of
	// bare file names.
	ShowPaths bool

	// Compact enables compact output (less whitespace).
	Compact bool
}

// photoPath is how a photo location is shown.
func (c Config) photoPath(path string) string {
	if c.ShowPaths {
		return path
	}
	return filepath.Base(path)
}
