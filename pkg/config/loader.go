package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override.
const envPrefix = "SNAPCAM_"

// Loader resolves the configuration snapcam runs with.
type Loader interface {
	// Load layers defaults, the config file and SNAPCAM_* variables, in
	// that order, and validates the result.
	Load() (*Config, error)

	// LoadFromFile decodes one YAML file over the defaults. It does not
	// look at the environment or validate.
	LoadFromFile(path string) (*Config, error)

	// Path returns the config file Load reads, or "" if there is none.
	Path() string
}

type loader struct {
	// explicit is the path given by flag or $SNAPCAM_CONFIG.
	explicit string
}

// NewLoader returns a Loader for configPath. An empty configPath falls
// back to $SNAPCAM_CONFIG, then to the first of ./snapcam.yaml and
// ~/.config/snapcam/config.yaml that exists.
func NewLoader(configPath string) Loader {
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	return &loader{explicit: configPath}
}

// layer refines cfg in place.
type layer func(cfg *Config) error

func (l *loader) Load() (*Config, error) {
	cfg := Default()

	for _, apply := range []layer{l.fileLayer, envLayer, normalize} {
		if err := apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fileLayer decodes the config file over cfg. A file named explicitly
// must load; a discovered one that fails is skipped.
func (l *loader) fileLayer(cfg *Config) error {
	path := l.Path()
	if path == "" {
		return nil
	}

	err := decodeFile(path, cfg)
	switch {
	case err == nil:
		return nil
	case l.explicit != "":
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	default:
		*cfg = *Default()
		return nil
	}
}

// envLayer overlays SNAPCAM_* variables, e.g. SNAPCAM_CAMERA_DRIVER or
// SNAPCAM_CAPTURE_OUTPUT_DIR. Unset variables leave cfg alone.
func envLayer(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}
	return nil
}

// normalize lowercases the enumerated settings users tend to capitalize.
func normalize(cfg *Config) error {
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Permission.Mode = strings.ToLower(cfg.Permission.Mode)
	return nil
}

func (l *loader) LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *loader) Path() string {
	if l.explicit != "" {
		return l.explicit
	}

	for _, candidate := range []string{"./snapcam.yaml", DefaultPath()} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// decodeFile unmarshals the YAML at path into cfg. Keys the file omits
// keep the value cfg already has.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user supplied config path
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

// Load resolves the configuration from the default locations.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile resolves the configuration with path as the config file.
// Environment overrides still apply and the result is validated.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save validates cfg and writes it as YAML to path, readable only by the
// owner. The file is replaced atomically.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapcam-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
