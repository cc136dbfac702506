package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/session"
	"github.com/mattn/go-runewidth"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config  Config
	palette palette
}

// FormatStatus implements Formatter.FormatStatus.
func (f *tableFormatter) FormatStatus(w io.Writer, st session.Status) error {
	if err := writeHeader(w, "Camera Session", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Message", st.Message},
		{"Permission", string(st.Permission)},
		{"Facing", st.Facing.String()},
		{"Controls", controlList(st.Controls)},
	}

	if st.LastError != "" {
		rows = append(rows, []string{"Error", st.LastError})
	}

	if st.LastCapture != nil {
		rows = append(rows, []string{"Last Capture", f.config.photoPath(st.LastCapture.Path)})
		if f.config.ShowTimestamps {
			rows = append(rows, []string{"Taken At", st.LastCapture.TakenAt.Format(timeLayout)})
		}
	}

	if f.config.ShowPaths && st.PreviewURI != "" {
		rows = append(rows, []string{"Preview", st.PreviewURI})
	}

	if f.config.ShowTimestamps && !st.UpdatedAt.IsZero() {
		rows = append(rows, []string{"Updated", st.UpdatedAt.Format(timeLayout)})
	}

	// Written alone: the cell may carry color codes.
	if _, err := fmt.Fprintf(w, "%-12s  %s\n", "Phase", f.palette.phase(st.Phase)); err != nil {
		return err
	}

	return f.writeRows(w, rows, []int{12, 0})
}

// FormatGallery implements Formatter.FormatGallery.
func (f *tableFormatter) FormatGallery(w io.Writer, entries []*gallery.Entry) error {
	if err := writeHeader(w, "Gallery", f.config.Compact); err != nil {
		return err
	}

	header := []string{"#", "Name", "Facing", "Taken", "Size"}
	if f.config.ShowPaths {
		header = append(header, "Path")
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			e.Name,
			orDash(e.Facing),
			e.TakenAt.Format(timeLayout),
			formatSize(e.Size),
		}
		if f.config.ShowPaths {
			rows[i] = append(rows[i], e.Path)
		}
	}

	return f.writeTable(w, header, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No photos")
		return err
	}

	// Widths are in terminal columns; names may hold wide runes.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	if err := f.writeRows(w, rows, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

func (f *tableFormatter) writeRows(w io.Writer, rows [][]string, widths []int) error {
	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes a single table row. The last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	sep := "  "
	if f.config.Compact {
		sep = " "
	}

	for i, cell := range cells {
		if i > 0 {
			if _, err := fmt.Fprint(w, sep); err != nil {
				return err
			}
		}

		if i == len(cells)-1 {
			if _, err := fmt.Fprint(w, cell); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprint(w, runewidth.FillRight(cell, widths[i])); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
