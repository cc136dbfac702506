package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/google/uuid"
)

// NewProvider creates the Provider selected by cfg.Driver.
func NewProvider(cfg Config, log logger.Logger) (Provider, error) {
	switch cfg.Driver {
	case DriverV4L2, "":
		return NewV4L2Provider(cfg, log)
	case DriverVirtual:
		return NewVirtualProvider(cfg, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// applyDefaults fills zero values and expands the output directory.
func applyDefaults(cfg Config) Config {
	if cfg.BackDevice == "" && cfg.Driver != DriverVirtual {
		cfg.BackDevice = "/dev/video0"
	}
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 720
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	cfg.OutputDir = expandHome(cfg.OutputDir)
	return cfg
}

// deviceFor returns the configured device for facing.
func deviceFor(cfg Config, facing Facing) (string, error) {
	var device string
	switch facing {
	case FacingBack:
		device = cfg.BackDevice
	case FacingFront:
		device = cfg.FrontDevice
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidFacing, facing)
	}
	if device == "" {
		return "", fmt.Errorf("%w for %s camera", ErrNoDevice, facing)
	}
	return device, nil
}

// handleSet tracks the handles a provider has handed out.
type handleSet struct {
	mu   sync.Mutex
	open map[string]Handle
}

func newHandleSet() *handleSet {
	return &handleSet{open: make(map[string]Handle)}
}

func (s *handleSet) issue(facing Facing, device string) Handle {
	h := Handle{
		ID:         uuid.NewString(),
		Facing:     facing,
		Device:     device,
		AcquiredAt: time.Now(),
	}

	s.mu.Lock()
	s.open[h.ID] = h
	s.mu.Unlock()

	return h
}

func (s *handleSet) lookup(h Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, ok := s.open[h.ID]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h.ID)
	}
	return open, nil
}

// drop removes h and reports whether it was open.
func (s *handleSet) drop(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.open[h.ID]; !ok {
		return false
	}
	delete(s.open, h.ID)
	return true
}

func (s *handleSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// prepareDestination creates the output directory and returns the full
// path for name. Names containing path separators are rejected.
func prepareDestination(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid file name %q", ErrCaptureFailed, name)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
