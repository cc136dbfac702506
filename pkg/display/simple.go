package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/session"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config  Config
	palette palette
}

// FormatStatus implements Formatter.FormatStatus.
func (f *simpleFormatter) FormatStatus(w io.Writer, st session.Status) error {
	parts := []string{
		fmt.Sprintf("[%s] %s", f.palette.phase(st.Phase), st.Message),
		"facing: " + st.Facing.String(),
		"controls: " + controlList(st.Controls),
	}
	if st.LastCapture != nil {
		parts = append(parts, "last: "+f.config.photoPath(st.LastCapture.Path))
	}
	if f.config.ShowTimestamps && !st.UpdatedAt.IsZero() {
		parts = append(parts, st.UpdatedAt.Format(timeLayout))
	}

	_, err := fmt.Fprintln(w, strings.Join(parts, " | "))
	return err
}

// FormatGallery implements Formatter.FormatGallery.
func (f *simpleFormatter) FormatGallery(w io.Writer, entries []*gallery.Entry) error {
	for _, e := range entries {
		name := e.Name
		if f.config.ShowPaths {
			name = e.Path
		}
		if _, err := fmt.Fprintf(w, "%s %s (%s, %s)\n",
			e.TakenAt.Format(timeLayout),
			name,
			orDash(e.Facing),
			formatSize(e.Size)); err != nil {
			return err
		}
	}

	return nil
}
