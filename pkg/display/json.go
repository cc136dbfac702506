package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/session"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// FormatStatus implements Formatter.FormatStatus.
func (f *jsonFormatter) FormatStatus(w io.Writer, st session.Status) error {
	return f.encoder(w).Encode(st)
}

// FormatGallery implements Formatter.FormatGallery.
func (f *jsonFormatter) FormatGallery(w io.Writer, entries []*gallery.Entry) error {
	if entries == nil {
		entries = []*gallery.Entry{}
	}
	return f.encoder(w).Encode(entries)
}

func (f *jsonFormatter) encoder(w io.Writer) *json.Encoder {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder
}
