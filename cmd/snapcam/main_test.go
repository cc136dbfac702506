package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xmhha/snapcam/pkg/config"
)

// TestParseRunCommand tests run command flag parsing.
func TestParseRunCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCmd   runCommand
		wantError bool
	}{
		{
			name: "default flags",
			args: []string{},
			wantCmd: runCommand{
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "virtual driver",
			args: []string{"-driver", "virtual"},
			wantCmd: runCommand{
				driver:     "virtual",
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "permission and format",
			args: []string{"-permission", "grant", "-format", "table"},
			wantCmd: runCommand{
				permission: "grant",
				format:     "table",
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "output directory",
			args: []string{"-output", "/tmp/shots"},
			wantCmd: runCommand{
				outputDir:  "/tmp/shots",
				configPath: "/test/config.yaml",
			},
		},
		{
			name:      "unknown flag",
			args:      []string{"-flash"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := parseRunCommand("/test/config.yaml", tt.args)
			if tt.wantError {
				if err == nil {
					t.Fatal("parseRunCommand() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRunCommand() error = %v", err)
			}
			if *cmd != tt.wantCmd {
				t.Errorf("parseRunCommand() = %+v, want %+v", *cmd, tt.wantCmd)
			}
		})
	}
}

// TestParseGalleryCommand tests gallery command flag parsing.
func TestParseGalleryCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantCmd galleryCommand
	}{
		{
			name: "default flags",
			args: []string{},
			wantCmd: galleryCommand{
				format:     "table",
				limit:      20,
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "json with limit",
			args: []string{"-format", "json", "-limit", "5"},
			wantCmd: galleryCommand{
				format:     "json",
				limit:      5,
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "scan and paths",
			args: []string{"-scan", "-paths", "-limit", "0"},
			wantCmd: galleryCommand{
				format:     "table",
				limit:      0,
				scan:       true,
				showPaths:  true,
				configPath: "/test/config.yaml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := parseGalleryCommand("/test/config.yaml", tt.args)
			if err != nil {
				t.Fatalf("parseGalleryCommand() error = %v", err)
			}
			if *cmd != tt.wantCmd {
				t.Errorf("parseGalleryCommand() = %+v, want %+v", *cmd, tt.wantCmd)
			}
		})
	}
}

// TestRunCommandApplyFlags tests that flags override configuration.
func TestRunCommandApplyFlags(t *testing.T) {
	tests := []struct {
		name    string
		cmd     runCommand
		wantErr error
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no flags keeps config",
			cmd:  runCommand{},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Camera.Driver != "v4l2" {
					t.Errorf("Driver = %s, want v4l2", cfg.Camera.Driver)
				}
			},
		},
		{
			name: "flags override",
			cmd: runCommand{
				driver:     "virtual",
				permission: "GRANT",
				format:     "json",
				outputDir:  "/tmp/shots",
			},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Camera.Driver != "virtual" {
					t.Errorf("Driver = %s, want virtual", cfg.Camera.Driver)
				}
				if cfg.Permission.Mode != "grant" {
					t.Errorf("Permission mode = %s, want grant", cfg.Permission.Mode)
				}
				if cfg.Display.Format != "json" {
					t.Errorf("Format = %s, want json", cfg.Display.Format)
				}
				if cfg.Capture.OutputDir != "/tmp/shots" {
					t.Errorf("OutputDir = %s, want /tmp/shots", cfg.Capture.OutputDir)
				}
			},
		},
		{
			name:    "invalid driver",
			cmd:     runCommand{driver: "webcam"},
			wantErr: config.ErrInvalidDriver,
		},
		{
			name:    "invalid permission",
			cmd:     runCommand{permission: "maybe"},
			wantErr: config.ErrInvalidPermissionMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			err := tt.cmd.applyFlags(cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("applyFlags() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyFlags() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

// TestConfigSearchPaths tests the config file search order.
func TestConfigSearchPaths(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")

	cmd := &configCommand{configPath: "/explicit.yaml"}
	paths := cmd.searchPaths()
	if len(paths) != 3 || paths[0] != "/explicit.yaml" || paths[1] != "./snapcam.yaml" {
		t.Errorf("searchPaths() = %v", paths)
	}

	t.Setenv(config.EnvConfigPath, "/from/env.yaml")
	paths = (&configCommand{}).searchPaths()
	if paths[0] != "/from/env.yaml" {
		t.Errorf("searchPaths()[0] = %s, want /from/env.yaml", paths[0])
	}
}

// TestConfigCommand tests the config subcommands against a temporary file.
func TestConfigCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfigPath, "")

	path := filepath.Join(t.TempDir(), "snapcam.yaml")
	cfg := config.Default()
	cfg.Camera.Driver = "virtual"
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		in      string
		want    []string
		wantErr bool
	}{
		{
			name: "show yaml",
			args: []string{"show"},
			want: []string{"# source: " + path, "driver: virtual"},
		},
		{
			name: "show json",
			args: []string{"show", "-format", "json"},
			want: []string{`"Driver": "virtual"`},
		},
		{
			name:    "show unknown format",
			args:    []string{"show", "-format", "toml"},
			wantErr: true,
		},
		{
			name: "path marks active file",
			args: []string{"path"},
			want: []string{"* present  " + path},
		},
		{
			name: "check",
			args: []string{"check"},
			want: []string{"configuration ok (" + path + ")"},
		},
		{
			name: "reset declined",
			args: []string{"reset", "-output", path},
			in:   "n\n",
			want: []string{"Overwrite? [y/N]", "reset cancelled"},
		},
		{
			name:    "unknown subcommand",
			args:    []string{"edit"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			cmd := &configCommand{configPath: path, in: strings.NewReader(tt.in)}

			err := cmd.Execute(&out, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Execute() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}

	loaded, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Camera.Driver != "virtual" {
		t.Errorf("declined reset changed the file: driver = %s", loaded.Camera.Driver)
	}
}

// TestConfigResetForce tests that -force overwrites without asking.
func TestConfigResetForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.Camera.Driver = "virtual"
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out strings.Builder
	cmd := &configCommand{configPath: path, in: strings.NewReader("")}
	if err := cmd.Execute(&out, []string{"reset", "-force", "-output", path}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	loaded, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Camera.Driver != "v4l2" {
		t.Errorf("driver after reset = %s, want v4l2", loaded.Camera.Driver)
	}
	if strings.Contains(out.String(), "Overwrite?") {
		t.Error("reset -force asked for confirmation")
	}
}

// TestPermissionCommandHelp tests permission command routing.
func TestPermissionCommandHelp(t *testing.T) {
	var out strings.Builder
	cmd := &permissionCommand{}

	if err := cmd.Execute(&out, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "forget") {
		t.Errorf("help output missing forget:\n%s", out.String())
	}

	if err := cmd.Execute(&out, []string{"revoke"}); err == nil {
		t.Error("Execute(revoke) error = nil, want unknown subcommand")
	}
}

// TestScanReader tests the non-terminal line reader.
func TestScanReader(t *testing.T) {
	r := newScanReader(strings.NewReader("start\n  capture \nquit"))

	var got []string
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		got = append(got, line)
	}

	want := []string{"start", "  capture ", "quit"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// TestNewLineReaderWithoutTerminal tests the fallback for piped input.
func TestNewLineReaderWithoutTerminal(t *testing.T) {
	in, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	r, out := newLineReader(in, os.Stdout)
	if _, ok := r.(*scanReader); !ok {
		t.Errorf("newLineReader() = %T, want *scanReader", r)
	}
	if out != os.Stdout {
		t.Error("output is not the given file")
	}
}
