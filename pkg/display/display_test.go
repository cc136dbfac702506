package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/snapcam/pkg/camera"
	"github.com/0xmhha/snapcam/pkg/gallery"
	"github.com/0xmhha/snapcam/pkg/session"
	"github.com/mattn/go-runewidth"
)

var noon = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func readyStatus() session.Status {
	return session.Status{
		Phase:      session.PhaseReady,
		Permission: session.PermissionGranted,
		Facing:     camera.FacingFront,
		Message:    "saved: IMG_20240101_120000.jpg",
		LastCapture: &session.Capture{
			Path:    "/pics/IMG_20240101_120000.jpg",
			TakenAt: noon,
		},
		PreviewURI: "/pics/IMG_20240101_120000.jpg?v=20240101_120000",
		Controls:   session.Controls{Capture: true, Switch: true},
		HasCamera:  true,
		UpdatedAt:  noon,
	}
}

func testEntries() []*gallery.Entry {
	return []*gallery.Entry{
		{ID: "1", Path: "/pics/IMG_20240101_120500.jpg", Name: "IMG_20240101_120500.jpg", Facing: "back", TakenAt: noon.Add(5 * time.Minute), Size: 345678},
		{ID: "2", Path: "/pics/IMG_20240101_120000.jpg", Name: "IMG_20240101_120000.jpg", TakenAt: noon, Size: 512},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"default format (table)", Config{}, "*display.tableFormatter"},
		{"table format", Config{Format: FormatTable}, "*display.tableFormatter"},
		{"json format", Config{Format: FormatJSON}, "*display.jsonFormatter"},
		{"simple format", Config{Format: FormatSimple}, "*display.simpleFormatter"},
		{"unknown format", Config{Format: "xml"}, "*display.tableFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := fmt.Sprintf("%T", New(tt.config))
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"table", "json", "simple"} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	if ValidFormat("xml") {
		t.Error("ValidFormat(xml) = true")
	}
}

func TestTableFormatter_FormatStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := New(Config{Format: FormatTable, ShowTimestamps: true, ShowPaths: true})

	if err := f.FormatStatus(&buf, readyStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Camera Session",
		"Phase         ready",
		"saved: IMG_20240101_120000.jpg",
		"front",
		"capture switch",
		"Last Capture  /pics/IMG_20240101_120000.jpg",
		"?v=20240101_120000",
		"2024-01-01 12:00:00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("FormatStatus() output missing %q\n%s", want, output)
		}
	}

	if strings.Contains(output, "\x1b[") {
		t.Error("FormatStatus() wrote color codes with color disabled")
	}
}

func TestTableFormatter_FormatStatusError(t *testing.T) {
	t.Parallel()

	st := session.Status{
		Phase:      session.PhaseError,
		Permission: session.PermissionGranted,
		Message:    "camera error: device busy",
		LastError:  "device busy",
		Controls:   session.Controls{Start: true},
	}

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable, Compact: true}).FormatStatus(&buf, st); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Error") || !strings.Contains(output, "device busy") {
		t.Errorf("FormatStatus() output missing error row\n%s", output)
	}
	if strings.Contains(output, "Last Capture") {
		t.Errorf("FormatStatus() output has capture row without capture\n%s", output)
	}
}

func TestColoredPhase(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatSimple, Color: true}).FormatStatus(&buf, readyStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("FormatStatus() output has no color codes: %q", buf.String())
	}
}

func TestSimpleFormatter_FormatStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatSimple}).FormatStatus(&buf, readyStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	want := "[ready] saved: IMG_20240101_120000.jpg | facing: front | controls: capture switch | last: IMG_20240101_120000.jpg\n"
	if buf.String() != want {
		t.Errorf("FormatStatus() = %q, want %q", buf.String(), want)
	}
}

func TestJSONFormatter_FormatStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON}).FormatStatus(&buf, readyStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if decoded["phase"] != "ready" {
		t.Errorf("phase = %v, want ready", decoded["phase"])
	}
	if decoded["facing"] != "front" {
		t.Errorf("facing = %v, want front", decoded["facing"])
	}
	controls, ok := decoded["controls"].(map[string]any)
	if !ok || controls["capture"] != true || controls["start"] != false {
		t.Errorf("controls = %v", decoded["controls"])
	}
}

func TestTableFormatter_FormatGallery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatGallery(&buf, testEntries()); err != nil {
		t.Fatalf("FormatGallery() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Gallery", "Name", "IMG_20240101_120500.jpg", "337.6 KiB", "512 B", "back"} {
		if !strings.Contains(output, want) {
			t.Errorf("FormatGallery() output missing %q\n%s", want, output)
		}
	}

	// Newest entry stays first.
	if strings.Index(output, "120500") > strings.Index(output, "120000.jpg") {
		t.Error("FormatGallery() reordered entries")
	}
}

func TestTableFormatter_WideNames(t *testing.T) {
	t.Parallel()

	entries := []*gallery.Entry{
		{Name: "写真_1.jpg", Facing: "back", TakenAt: noon, Size: 10},
		{Name: "IMG_1.jpg", Facing: "front", TakenAt: noon, Size: 10},
	}

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable, Compact: true}).FormatGallery(&buf, entries); err != nil {
		t.Fatalf("FormatGallery() error = %v", err)
	}

	// The Facing column starts at the same terminal column on every line.
	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Facing") || strings.Contains(line, ".jpg") {
			lines = append(lines, line)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("got %d table lines, want 3\n%s", len(lines), buf.String())
	}

	column := func(line, word string) int {
		return runewidth.StringWidth(line[:strings.Index(line, word)])
	}
	want := column(lines[0], "Facing")
	if got := column(lines[1], "back"); got != want {
		t.Errorf("wide row facing column = %d, want %d\n%s", got, want, buf.String())
	}
	if got := column(lines[2], "front"); got != want {
		t.Errorf("ascii row facing column = %d, want %d\n%s", got, want, buf.String())
	}
}

func TestTableFormatter_EmptyGallery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatGallery(&buf, nil); err != nil {
		t.Fatalf("FormatGallery() error = %v", err)
	}

	if !strings.Contains(buf.String(), "No photos") {
		t.Errorf("FormatGallery() output = %q, want No photos", buf.String())
	}
}

func TestSimpleFormatter_FormatGallery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatSimple}).FormatGallery(&buf, testEntries()); err != nil {
		t.Fatalf("FormatGallery() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("FormatGallery() wrote %d lines, want 2", len(lines))
	}
	if lines[1] != "2024-01-01 12:00:00 IMG_20240101_120000.jpg (-, 512 B)" {
		t.Errorf("line = %q", lines[1])
	}
}

func TestShowPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    Config
		status    []string
		notStatus []string
		gallery   []string
		notGallery []string
	}{
		{
			name:      "table names only",
			config:    Config{Format: FormatTable},
			status:    []string{"Last Capture  IMG_20240101_120000.jpg"},
			notStatus: []string{"/pics/", "Preview"},
			gallery:   []string{"IMG_20240101_120500.jpg"},
			notGallery: []string{"/pics/", "Path"},
		},
		{
			name:    "table full paths",
			config:  Config{Format: FormatTable, ShowPaths: true},
			status:  []string{"Last Capture  /pics/IMG_20240101_120000.jpg", "Preview", "?v=20240101_120000"},
			gallery: []string{"Path", "/pics/IMG_20240101_120500.jpg"},
		},
		{
			name:      "simple names only",
			config:    Config{Format: FormatSimple},
			status:    []string{"last: IMG_20240101_120000.jpg"},
			notStatus: []string{"/pics/"},
			gallery:   []string{" IMG_20240101_120000.jpg (-, 512 B)"},
			notGallery: []string{"/pics/"},
		},
		{
			name:    "simple full paths",
			config:  Config{Format: FormatSimple, ShowPaths: true},
			status:  []string{"last: /pics/IMG_20240101_120000.jpg"},
			gallery: []string{"2024-01-01 12:00:00 /pics/IMG_20240101_120000.jpg (-, 512 B)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := New(tt.config)

			var status bytes.Buffer
			if err := f.FormatStatus(&status, readyStatus()); err != nil {
				t.Fatalf("FormatStatus() error = %v", err)
			}
			checkOutput(t, "FormatStatus()", status.String(), tt.status, tt.notStatus)

			var list bytes.Buffer
			if err := f.FormatGallery(&list, testEntries()); err != nil {
				t.Fatalf("FormatGallery() error = %v", err)
			}
			checkOutput(t, "FormatGallery()", list.String(), tt.gallery, tt.notGallery)
		})
	}
}

func checkOutput(t *testing.T, what, output string, want, notWant []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("%s output missing %q\n%s", what, w, output)
		}
	}
	for _, w := range notWant {
		if strings.Contains(output, w) {
			t.Errorf("%s output has %q\n%s", what, w, output)
		}
	}
}

func TestJSONFormatter_FormatGallery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON, Compact: true}).FormatGallery(&buf, nil); err != nil {
		t.Fatalf("FormatGallery() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("FormatGallery(nil) = %q, want []", buf.String())
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.input); got != tt.want {
			t.Errorf("formatSize(%d) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestControlList(t *testing.T) {
	t.Parallel()

	if got := controlList(session.Controls{}); got != "-" {
		t.Errorf("controlList(none) = %q, want -", got)
	}
	if got := controlList(session.Controls{Start: true}); got != "start" {
		t.Errorf("controlList(start) = %q, want start", got)
	}
}

func TestColorEnabled(t *testing.T) {
	t.Parallel()

	if ColorEnabled(&bytes.Buffer{}, true) {
		t.Error("ColorEnabled(buffer) = true")
	}
	if ColorEnabled(os.Stdout, false) {
		t.Error("ColorEnabled(stdout, false) = true")
	}
}
