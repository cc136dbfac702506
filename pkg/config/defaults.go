package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "SNAPCAM_CONFIG"

// defaultOutputDir returns the default photo directory.
//
// Returns: ~/Pictures/snapcam.
func defaultOutputDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./photos"
	}

	return filepath.Join(homeDir, "Pictures", "snapcam")
}

// defaultDBPath returns the default database file path.
//
// Returns: ~/.config/snapcam/snapcam.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./snapcam.db"
	}

	return filepath.Join(homeDir, ".config", "snapcam", "snapcam.db")
}

// DefaultPath returns the default configuration file path.
//
// Returns: ~/.config/snapcam/config.yaml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./snapcam.yaml"
	}

	return filepath.Join(homeDir, ".config", "snapcam", "config.yaml")
}
