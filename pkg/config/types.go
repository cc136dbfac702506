// Package config provides configuration management for snapcam.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (SNAPCAM_*)
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Saving to: %s\n", cfg.Capture.OutputDir)
package config

import (
	"time"

	"github.com/0xmhha/snapcam/pkg/logger"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Camera.Driver is v4l2 or virtual
// - Camera.Width and Camera.Height must be > 0
// - Capture.OutputDir and Storage.DBPath must be set
// - All capture timeouts must be > 0.
type Config struct {
	// Camera hardware settings
	Camera CameraConfig `yaml:"camera" envPrefix:"CAMERA_"`

	// Capture settings
	Capture CaptureConfig `yaml:"capture" envPrefix:"CAPTURE_"`

	// Permission settings
	Permission PermissionConfig `yaml:"permission" envPrefix:"PERMISSION_"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`

	// Display settings
	Display DisplayConfig `yaml:"display" envPrefix:"DISPLAY_"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

// CameraConfig contains camera provider settings.
type CameraConfig struct {
	// Provider implementation (v4l2, virtual)
	Driver string `yaml:"driver" env:"DRIVER"`

	// Device used for the back camera
	BackDevice string `yaml:"back_device" env:"BACK_DEVICE"`

	// Device used for the front camera. Empty disables switching.
	FrontDevice string `yaml:"front_device" env:"FRONT_DEVICE"`

	// Requested capture resolution
	Width  int `yaml:"width" env:"WIDTH"`
	Height int `yaml:"height" env:"HEIGHT"`

	// ffmpeg binary used by the v4l2 driver
	FFmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG"`
}

// CaptureConfig contains capture session settings.
type CaptureConfig struct {
	// Directory captured photos are written to
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`

	// How long to wait for a permission decision
	PermissionTimeout time.Duration `yaml:"permission_timeout" env:"PERMISSION_TIMEOUT"`

	// How long to wait for the camera to open
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"ACQUIRE_TIMEOUT"`

	// How long a single capture may take
	CaptureTimeout time.Duration `yaml:"capture_timeout" env:"CAPTURE_TIMEOUT"`

	// Index image files that appear in OutputDir
	WatchOutput bool `yaml:"watch_output" env:"WATCH"`
}

// PermissionConfig contains camera permission settings.
type PermissionConfig struct {
	// How permission is decided (prompt, grant, deny)
	Mode string `yaml:"mode" env:"MODE"`

	// Persist prompt answers across runs
	Remember bool `yaml:"remember" env:"REMEMBER"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to BoltDB database file
	DBPath string `yaml:"db_path" env:"DB"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Output format (table, simple, json)
	Format string `yaml:"format" env:"FORMAT"`

	// Enable colored output
	ColorEnabled bool `yaml:"color_enabled" env:"COLOR"`

	// Show full paths in gallery listings
	ShowPaths bool `yaml:"show_paths" env:"SHOW_PATHS"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" env:"LEVEL"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" env:"OUTPUT"`

	// Log format (text, json)
	Format string `yaml:"format" env:"FORMAT"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	switch c.Camera.Driver {
	case "v4l2", "virtual":
	default:
		return ErrInvalidDriver
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return ErrInvalidResolution
	}

	if c.Capture.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.Capture.PermissionTimeout <= 0 ||
		c.Capture.AcquireTimeout <= 0 ||
		c.Capture.CaptureTimeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.Permission.Mode {
	case "prompt", "grant", "deny":
	default:
		return ErrInvalidPermissionMode
	}

	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}

	switch c.Display.Format {
	case "table", "simple", "json":
	default:
		return ErrInvalidDisplayFormat
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return ErrInvalidLogLevel
	}
	if !logger.ValidFormat(c.Logging.Format) {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Driver:     "v4l2",
			BackDevice: "/dev/video0",
			Width:      1280,
			Height:     720,
			FFmpegPath: "ffmpeg",
		},
		Capture: CaptureConfig{
			OutputDir:         defaultOutputDir(),
			PermissionTimeout: 60 * time.Second,
			AcquireTimeout:    10 * time.Second,
			CaptureTimeout:    15 * time.Second,
			WatchOutput:       true,
		},
		Permission: PermissionConfig{
			Mode:     "prompt",
			Remember: true,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Display: DisplayConfig{
			Format:       "simple",
			ColorEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
